package service

import (
	"context"
	"strings"
	"time"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MessageStore persists chat messages. Insert assigns the id and createdAt.
type MessageStore interface {
	Insert(ctx context.Context, meetingID, senderID uuid.UUID, text string) (model.Message, error)
	ListBefore(ctx context.Context, meetingID uuid.UUID, before *time.Time, limit int) ([]model.Message, error)
}

// ChatService backs the per-meeting chat rooms. Room access and message
// fan-out are meeting-scoped: only attendees may join a room, and only the
// other attendees are notified of a new message.
type ChatService struct {
	meetings MeetingStore
	messages MessageStore
	notifier Notifier
}

func NewChatService(meetings MeetingStore, messages MessageStore, notifier Notifier) *ChatService {
	return &ChatService{meetings: meetings, messages: messages, notifier: notifier}
}

// CanJoinRoom reports whether the user may enter the meeting's chat room.
func (s *ChatService) CanJoinRoom(ctx context.Context, meetingID, userID uuid.UUID) error {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, model.ErrMeetingNotFound) {
			return notFoundErr("Meeting not found")
		}
		return errors.Wrap(err, "loading meeting")
	}
	if !meeting.HasAttendee(userID) {
		return forbiddenErr("You are not participating in this meeting")
	}
	return nil
}

// SaveMessage persists a chat message and fans out push notifications to the
// other attendees. The returned message carries the server-assigned createdAt.
func (s *ChatService) SaveMessage(ctx context.Context, meetingID, senderID uuid.UUID, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, validationErr("Message text is empty")
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, model.ErrMeetingNotFound) {
			return model.Message{}, notFoundErr("Meeting not found")
		}
		return model.Message{}, errors.Wrap(err, "loading meeting")
	}
	if !meeting.HasAttendee(senderID) {
		return model.Message{}, forbiddenErr("You are not participating in this meeting")
	}

	message, err := s.messages.Insert(ctx, meetingID, senderID, text)
	if err != nil {
		return model.Message{}, errors.Wrap(err, "saving message")
	}

	for _, attendee := range meeting.Attendees {
		if attendee.ID == senderID {
			continue
		}
		s.notifier.Notify(attendee.ID, "New message", text)
	}

	return message, nil
}

// History returns a page of chat history, newest first. The cursor is the
// createdAt of the oldest message in the previous page; only strictly older
// messages are returned.
func (s *ChatService) History(ctx context.Context, meetingID uuid.UUID, before *time.Time, limit int) (model.MessagePage, error) {
	if limit <= 0 {
		limit = 20
	}

	messages, err := s.messages.ListBefore(ctx, meetingID, before, limit)
	if err != nil {
		return model.MessagePage{}, errors.Wrap(err, "listing messages")
	}

	page := model.MessagePage{Messages: messages}
	if len(messages) > 0 {
		oldest := messages[len(messages)-1].CreatedAt
		page.LastMessageDate = &oldest
	}
	return page, nil
}
