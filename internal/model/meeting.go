package model

import (
	"time"

	"github.com/google/uuid"
)

type Meeting struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Date        time.Time     `json:"date"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	AdminID     uuid.UUID     `json:"admin_id"`
	Admin       *UserSummary  `json:"admin,omitempty"`
	Attendees   []UserSummary `json:"attendees"`
	IsFinished  bool          `json:"is_finished"`
	Distance    *float64      `json:"distance,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// HasAttendee reports whether the user is currently in the attendee set.
func (m *Meeting) HasAttendee(userID uuid.UUID) bool {
	for _, a := range m.Attendees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

type CreateMeetingRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Date        string   `json:"date" validate:"required"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
}

type KickRequest struct {
	UserIDToKick string `json:"userIdToKick" validate:"required"`
}

type TransferAdminRequest struct {
	NewAdminID string `json:"newAdminId" validate:"required"`
}

type NearbyMeetingsParams struct {
	Latitude  float64
	Longitude float64
	Radius    float64
}

type PastMeetingsPage struct {
	TotalMeetings int       `json:"totalMeetings"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
	Meetings      []Meeting `json:"meetings"`
}
