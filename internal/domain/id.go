package domain

import "github.com/google/uuid"

// NewID returns a random identifier for a new row
func NewID() string {
	return uuid.NewString()
}

// NewInviteCode returns a fresh club invite code
func NewInviteCode() string {
	return uuid.NewString()
}
