package domain

import (
	"fmt"
	"time"
)

// AttendanceStatus is the outcome recorded for a member on a day
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// Valid reports whether s is a known status
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// Attendance is the single record for (user, club, day)
type Attendance struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	UserName  string           `json:"user_name,omitempty"`
	ClubID    string           `json:"club_id"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Day truncates t to midnight UTC of its UTC calendar day
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts "2006-01-02" or an RFC 3339 timestamp and returns its UTC day
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Day(t), nil
}

// SetAttendanceRequest represents an attendance upsert
type SetAttendanceRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Date   string `json:"date" validate:"required"`
	Status string `json:"status" validate:"required"`
}

// RosterEntry is one member's status for a day
type RosterEntry struct {
	UserID   string           `json:"user_id"`
	Name     string           `json:"name"`
	Role     Role             `json:"role"`
	Status   AttendanceStatus `json:"status"`
	Recorded bool             `json:"recorded"`
}

// Roster lists every member of a club for a day
type Roster struct {
	Date    time.Time                `json:"date"`
	Entries []RosterEntry            `json:"entries"`
	Counts  map[AttendanceStatus]int `json:"counts"`
}
