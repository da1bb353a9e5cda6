package service

import (
	"context"
	"time"

	"club-api/internal/domain"
)

// AuthService defines the interface for account and token operations
type AuthService interface {
	// Register creates an account, or claims one created by AddMemberByEmail
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)

	// Login checks credentials and issues a session token
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)

	// ValidateToken verifies a session token and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)

	// GetUser returns the account behind a user ID
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// MembershipService defines club and membership operations. Every call takes the caller's user ID.
type MembershipService interface {
	CreateClub(ctx context.Context, ownerID string, req *domain.CreateClubRequest) (*domain.Club, error)
	JoinClub(ctx context.Context, userID, inviteCode string) (*domain.Membership, error)
	AddMemberByEmail(ctx context.Context, actorID, clubID string, req *domain.AddMemberRequest) (*domain.Member, error)
	RemoveMember(ctx context.Context, actorID, clubID, membershipID string) error
	UpdateMemberRole(ctx context.Context, actorID, clubID, membershipID string, role domain.Role) (*domain.Membership, error)
	ListMembers(ctx context.Context, actorID, clubID string) ([]domain.Member, error)
	ListMyClubs(ctx context.Context, userID string) ([]domain.ClubWithCount, error)
	GetClub(ctx context.Context, actorID, clubID string) (*domain.ClubWithCount, error)
	DeleteClub(ctx context.Context, actorID, clubID string) error
	ClubSummary(ctx context.Context, actorID, clubID string) (*domain.ClubSummary, error)
	InviteQRCode(ctx context.Context, actorID, clubID string) ([]byte, error)
}

// AttendanceService defines attendance operations
type AttendanceService interface {
	SetAttendance(ctx context.Context, actorID, clubID, userID string, date time.Time, status domain.AttendanceStatus) (*domain.Attendance, error)
	ListAttendance(ctx context.Context, actorID, clubID string, day *time.Time) ([]domain.Attendance, error)
	Roster(ctx context.Context, actorID, clubID string, day time.Time) (*domain.Roster, error)
}

// BoardService defines bulletin board and poll operations
type BoardService interface {
	CreatePost(ctx context.Context, actorID, clubID string, req *domain.CreatePostRequest) (*domain.Post, error)
	GetPost(ctx context.Context, actorID, clubID, postID string) (*domain.Post, error)
	ListPosts(ctx context.Context, actorID, clubID string) ([]domain.Post, error)
	DeletePost(ctx context.Context, actorID, clubID, postID string) error
	CastVote(ctx context.Context, userID, clubID, postID, pollOptionID string) (*domain.Vote, error)
}

// ScheduleService defines club schedule operations
type ScheduleService interface {
	CreateSchedule(ctx context.Context, actorID, clubID string, req *domain.CreateScheduleRequest) (*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, actorID, clubID, scheduleID string) error
	ListSchedules(ctx context.Context, actorID, clubID string) ([]domain.Schedule, error)
	ExportICS(ctx context.Context, actorID, clubID string) ([]byte, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth       AuthService
	Membership MembershipService
	Attendance AttendanceService
	Board      BoardService
	Schedule   ScheduleService
}
