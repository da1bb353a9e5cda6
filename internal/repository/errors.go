package repository

import (
	"errors"
	"fmt"

	"club-api/pkg/database"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique key
	ErrConflict = errors.New("conflict")
)

// ConflictError names the unique constraint that rejected a write
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s", e.Constraint)
}

// Is lets errors.Is(err, ErrConflict) match a *ConflictError
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Constraint names used by the schema. The in-memory store reports the same names.
const (
	ConstraintUserEmail      = "users_email_key"
	ConstraintClubInviteCode = "clubs_invite_code_key"
	ConstraintMembership     = "memberships_user_id_club_id_key"
	ConstraintAttendanceDay  = "attendances_user_id_club_id_date_key"
	ConstraintVoteOnePerPoll = "votes_user_id_post_id_key"
)

// IsConflictOn reports whether err is a conflict on the named constraint
func IsConflictOn(err error, constraint string) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Constraint == constraint
}

// translate maps driver errors onto ErrNotFound and ErrConflict, wrapping everything with op
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if constraint, ok := database.IsUniqueViolation(err); ok {
		return fmt.Errorf("%s: %w", op, &ConflictError{Constraint: constraint})
	}
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
