package repository

import (
	"context"
	"time"

	"club-api/internal/domain"
)

// Transactor runs fn in a transaction shared by every repository call made with the ctx it receives
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalised email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create creates a new user. A duplicate email yields ErrConflict.
	Create(ctx context.Context, user *domain.User) error
}

// ClubRepository defines the interface for club data operations
type ClubRepository interface {
	// Create inserts a club. A duplicate invite code yields ErrConflict.
	Create(ctx context.Context, club *domain.Club) error

	GetByID(ctx context.Context, id string) (*domain.Club, error)

	GetByInviteCode(ctx context.Context, code string) (*domain.Club, error)

	// ListByUser returns the clubs userID belongs to with member counts, newest membership first
	ListByUser(ctx context.Context, userID string) ([]domain.ClubWithCount, error)

	// Delete removes a club and, through foreign keys, everything scoped to it
	Delete(ctx context.Context, id string) error
}

// MembershipRepository defines the interface for membership data operations
type MembershipRepository interface {
	// Create inserts a membership. An existing (user, club) pair yields ErrConflict.
	Create(ctx context.Context, m *domain.Membership) error

	// Get returns the membership of userID in clubID
	Get(ctx context.Context, userID, clubID string) (*domain.Membership, error)

	// GetByID returns a membership of clubID by its own ID
	GetByID(ctx context.Context, clubID, id string) (*domain.Membership, error)

	// ListMembers returns the roster of a club ordered by join time
	ListMembers(ctx context.Context, clubID string) ([]domain.Member, error)

	CountMembers(ctx context.Context, clubID string) (int, error)

	// LockOwners locks the club's OWNER memberships until the surrounding
	// transaction ends and returns how many there are
	LockOwners(ctx context.Context, clubID string) (int, error)

	UpdateRole(ctx context.Context, clubID, id string, role domain.Role) error

	Delete(ctx context.Context, clubID, id string) error
}

// AttendanceRepository defines the interface for attendance data operations
type AttendanceRepository interface {
	// Upsert inserts or overwrites the status for (user, club, day). a.Date must already be a UTC day.
	Upsert(ctx context.Context, a *domain.Attendance) error

	// List returns the club's rows, restricted to one day when day is non-nil
	List(ctx context.Context, clubID string, day *time.Time) ([]domain.Attendance, error)
}

// PostRepository defines the interface for bulletin board posts
type PostRepository interface {
	// Create inserts a post and its poll options
	Create(ctx context.Context, post *domain.Post) error

	// GetByID returns a post of clubID with its options, without counts
	GetByID(ctx context.Context, clubID, id string) (*domain.Post, error)

	// List returns posts of a club newest first. limit <= 0 means no limit.
	List(ctx context.Context, clubID string, limit int) ([]domain.Post, error)

	Delete(ctx context.Context, clubID, id string) error
}

// VoteRepository defines the interface for poll votes
type VoteRepository interface {
	// Create records a vote. ErrNotFound when the option is not part of the post,
	// ErrConflict when the user already voted on the post.
	Create(ctx context.Context, vote *domain.Vote) error

	// GetByUser returns the user's vote on a post
	GetByUser(ctx context.Context, postID, userID string) (*domain.Vote, error)

	// Tally counts votes per option of a post
	Tally(ctx context.Context, postID string) (domain.Tally, error)
}

// ScheduleRepository defines the interface for club schedules
type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.Schedule) error

	// List returns schedules of a club ordered by start time
	List(ctx context.Context, clubID string) ([]domain.Schedule, error)

	// ListUpcoming returns up to limit schedules starting at or after from
	ListUpcoming(ctx context.Context, clubID string, from time.Time, limit int) ([]domain.Schedule, error)

	Delete(ctx context.Context, clubID, id string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Tx          Transactor
	Users       UserRepository
	Clubs       ClubRepository
	Memberships MembershipRepository
	Attendance  AttendanceRepository
	Posts       PostRepository
	Votes       VoteRepository
	Schedules   ScheduleRepository
}
