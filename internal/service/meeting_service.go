package service

import (
	"context"
	"fmt"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/ayilmaz/meetspot/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MeetingStore is the persistence surface the membership rules run against.
type MeetingStore interface {
	Create(ctx context.Context, meeting model.Meeting) (model.Meeting, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Meeting, error)
	AddAttendee(ctx context.Context, meetingID, userID uuid.UUID) error
	RemoveAttendee(ctx context.Context, meetingID, userID uuid.UUID) error
	UpdateAdmin(ctx context.Context, meetingID, newAdminID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserDirectory resolves user display data for notification texts.
type UserDirectory interface {
	GetSummary(ctx context.Context, id uuid.UUID) (model.UserSummary, error)
}

// Notifier hands a push notification off for delivery. Implementations must
// never block the caller and must swallow delivery failures.
type Notifier interface {
	Notify(userID uuid.UUID, title, body string)
}

// MeetingService owns the meeting membership lifecycle: create, join, leave,
// kick, transfer-admin and cancel, with the admin-stays-a-member invariant.
type MeetingService struct {
	store    MeetingStore
	users    UserDirectory
	notifier Notifier
}

func NewMeetingService(store MeetingStore, users UserDirectory, notifier Notifier) *MeetingService {
	return &MeetingService{store: store, users: users, notifier: notifier}
}

func (s *MeetingService) Create(ctx context.Context, userID uuid.UUID, req model.CreateMeetingRequest) (model.Meeting, error) {
	if err := util.ValidateStruct(req); err != nil {
		return model.Meeting{}, validationErr("Fill in all required fields")
	}

	date, err := util.ParseMeetingDate(req.Date)
	if err != nil {
		return model.Meeting{}, validationErr("Invalid date format")
	}

	meeting := model.Meeting{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		AdminID:     userID,
	}

	created, err := s.store.Create(ctx, meeting)
	if err != nil {
		return model.Meeting{}, errors.Wrap(err, "creating meeting")
	}
	return created, nil
}

func (s *MeetingService) Join(ctx context.Context, meetingID, userID uuid.UUID) (model.Meeting, error) {
	meeting, err := s.openMeeting(ctx, meetingID)
	if err != nil {
		return model.Meeting{}, err
	}

	if meeting.HasAttendee(userID) {
		return model.Meeting{}, conflictErr("You are already participating")
	}

	if err := s.store.AddAttendee(ctx, meetingID, userID); err != nil {
		return model.Meeting{}, errors.Wrap(err, "adding attendee")
	}

	joinerName := "Someone"
	if joiner, err := s.users.GetSummary(ctx, userID); err == nil && joiner.Name != "" {
		joinerName = joiner.Name
	}
	body := fmt.Sprintf("%s joined the meeting %q", joinerName, meeting.Title)
	for _, attendee := range meeting.Attendees {
		if attendee.ID == userID {
			continue
		}
		s.notifier.Notify(attendee.ID, "New participant!", body)
	}

	updated, err := s.store.GetByID(ctx, meetingID)
	if err != nil {
		return model.Meeting{}, errors.Wrap(err, "reloading meeting")
	}
	return updated, nil
}

func (s *MeetingService) Leave(ctx context.Context, meetingID, userID uuid.UUID) error {
	meeting, err := s.openMeeting(ctx, meetingID)
	if err != nil {
		return err
	}

	if !meeting.HasAttendee(userID) {
		return conflictErr("You are not participating in this meeting")
	}
	if meeting.AdminID == userID {
		return forbiddenErr("Transfer admin rights before leaving")
	}

	if err := s.store.RemoveAttendee(ctx, meetingID, userID); err != nil {
		return errors.Wrap(err, "removing attendee")
	}
	return nil
}

func (s *MeetingService) Kick(ctx context.Context, meetingID, actorID, targetID uuid.UUID) (model.Meeting, error) {
	meeting, err := s.openMeeting(ctx, meetingID)
	if err != nil {
		return model.Meeting{}, err
	}

	if meeting.AdminID != actorID {
		return model.Meeting{}, forbiddenErr("Only the admin can kick participants")
	}
	if !meeting.HasAttendee(targetID) {
		return model.Meeting{}, conflictErr("This user is not participating in the meeting")
	}
	if targetID == actorID {
		return model.Meeting{}, conflictErr("Admin cannot kick themselves")
	}

	if err := s.store.RemoveAttendee(ctx, meetingID, targetID); err != nil {
		return model.Meeting{}, errors.Wrap(err, "removing attendee")
	}

	s.notifier.Notify(targetID, "You were kicked", fmt.Sprintf("You were kicked from the meeting %q", meeting.Title))

	updated, err := s.store.GetByID(ctx, meetingID)
	if err != nil {
		return model.Meeting{}, errors.Wrap(err, "reloading meeting")
	}
	return updated, nil
}

func (s *MeetingService) TransferAdmin(ctx context.Context, meetingID, actorID, newAdminID uuid.UUID) error {
	meeting, err := s.openMeeting(ctx, meetingID)
	if err != nil {
		return err
	}

	if meeting.AdminID != actorID {
		return forbiddenErr("You are not the admin")
	}
	if !meeting.HasAttendee(newAdminID) {
		return conflictErr("Selected user is not a participant")
	}

	if err := s.store.UpdateAdmin(ctx, meetingID, newAdminID); err != nil {
		return errors.Wrap(err, "updating admin")
	}
	return nil
}

// Cancel deletes the meeting outright and notifies every attendee after the
// delete is committed.
func (s *MeetingService) Cancel(ctx context.Context, meetingID, actorID uuid.UUID) error {
	meeting, err := s.openMeeting(ctx, meetingID)
	if err != nil {
		return err
	}

	if meeting.AdminID != actorID {
		return forbiddenErr("Only admin can cancel the meeting")
	}

	if err := s.store.Delete(ctx, meetingID); err != nil {
		return errors.Wrap(err, "deleting meeting")
	}

	body := fmt.Sprintf("The meeting %q was cancelled", meeting.Title)
	for _, attendee := range meeting.Attendees {
		s.notifier.Notify(attendee.ID, "Meeting cancelled", body)
	}
	return nil
}

func (s *MeetingService) openMeeting(ctx context.Context, meetingID uuid.UUID) (model.Meeting, error) {
	meeting, err := s.store.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, model.ErrMeetingNotFound) {
			return model.Meeting{}, notFoundErr("Meeting not found")
		}
		return model.Meeting{}, errors.Wrap(err, "loading meeting")
	}
	if meeting.IsFinished {
		return model.Meeting{}, conflictErr("Meeting is already finished")
	}
	return meeting, nil
}
