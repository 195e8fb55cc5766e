package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID    `json:"id"`
	MeetingID uuid.UUID    `json:"meeting_id"`
	SenderID  uuid.UUID    `json:"sender_id"`
	Sender    *UserSummary `json:"sender,omitempty"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
}

// MessagePage is a cursor page of chat history, newest first. LastMessageDate
// is the createdAt of the oldest message returned and feeds the next request.
type MessagePage struct {
	Messages        []Message  `json:"messages"`
	LastMessageDate *time.Time `json:"lastMessageDate"`
}
