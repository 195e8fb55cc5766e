package websockets

import (
	"context"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
)

// Event types
const (
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
	EventNewMessage  = "newMessage"
)

// InboundEvent is a client-to-server chat event.
type InboundEvent struct {
	Event     string `json:"event"`
	MeetingID string `json:"meetingId"`
	Text      string `json:"text,omitempty"`
}

// OutboundEvent is broadcast to every connection in a room.
type OutboundEvent struct {
	Event   string         `json:"event"`
	Message *model.Message `json:"message,omitempty"`
}

// ChatService is the chat-domain collaborator the hub drives: room access
// checks and message persistence with notification fan-out.
type ChatService interface {
	CanJoinRoom(ctx context.Context, meetingID, userID uuid.UUID) error
	SaveMessage(ctx context.Context, meetingID, senderID uuid.UUID, text string) (model.Message, error)
}

// AuthFunc verifies a connection token and yields the user id behind it.
type AuthFunc func(token string) (uuid.UUID, error)

type subscription struct {
	client *Client
	room   string
}

// RoomMessage is a payload addressed to every connection in one room.
type RoomMessage struct {
	Room string
	Data []byte
}
