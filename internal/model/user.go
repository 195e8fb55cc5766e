package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar"`
	Bio       *string   `json:"bio,omitempty"`
	FCMToken  *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the public projection embedded in meetings and messages.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar"`
	Bio       *string   `json:"bio,omitempty"`
}

type UpdateProfileRequest struct {
	Name string  `json:"name"`
	Bio  *string `json:"bio"`
}

type UpdateFCMTokenRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}
