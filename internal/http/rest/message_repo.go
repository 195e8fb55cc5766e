package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/ayilmaz/meetspot/internal/db"
	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MessageRepo persists chat messages. Messages are append-only; created_at
// is assigned by the database so one authority orders each room's history.
type MessageRepo struct {
	DB *db.DB
}

func (r *MessageRepo) Insert(ctx context.Context, meetingID, senderID uuid.UUID, text string) (model.Message, error) {
	message := model.Message{
		ID:        uuid.New(),
		MeetingID: meetingID,
		SenderID:  senderID,
		Text:      text,
	}

	err := r.DB.Pool().QueryRow(ctx, `
        INSERT INTO messages (id, meeting_id, sender_id, text)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `, message.ID, message.MeetingID, message.SenderID, message.Text).Scan(&message.CreatedAt)
	if err != nil {
		return model.Message{}, errors.Wrap(err, "inserting message")
	}

	var sender model.UserSummary
	err = r.DB.Pool().QueryRow(ctx, `
        SELECT id, name, email, avatar_url, bio FROM users WHERE id = $1
    `, senderID).Scan(&sender.ID, &sender.Name, &sender.Email, &sender.AvatarURL, &sender.Bio)
	if err == nil {
		message.Sender = &sender
	}

	return message, nil
}

// ListBefore returns up to limit messages for the meeting, newest first.
// When before is set only messages strictly older than it are returned.
func (r *MessageRepo) ListBefore(ctx context.Context, meetingID uuid.UUID, before *time.Time, limit int) ([]model.Message, error) {
	query := `
        SELECT m.id, m.meeting_id, m.sender_id, m.text, m.created_at,
               u.id, u.name, u.email, u.avatar_url, u.bio
        FROM messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.meeting_id = $1
    `
	args := []interface{}{meetingID}

	if before != nil {
		query += ` AND m.created_at < $2`
		args = append(args, *before)
	}
	query += fmt.Sprintf(` ORDER BY m.created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.DB.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var message model.Message
		var sender model.UserSummary
		err := rows.Scan(
			&message.ID, &message.MeetingID, &message.SenderID, &message.Text, &message.CreatedAt,
			&sender.ID, &sender.Name, &sender.Email, &sender.AvatarURL, &sender.Bio,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning message")
		}
		message.Sender = &sender
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
