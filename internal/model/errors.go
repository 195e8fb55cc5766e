package model

import "github.com/pkg/errors"

// Sentinel errors returned by the stores when a referenced row is absent.
var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrUserNotFound    = errors.New("user not found")
)
