package domain

import "time"

// Schedule is a dated club event
type Schedule struct {
	ID          string     `json:"id"`
	ClubID      string     `json:"club_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateScheduleRequest represents a new schedule entry
type CreateScheduleRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StartAt     *time.Time `json:"start_at" validate:"required"`
	EndAt       *time.Time `json:"end_at"`
}
