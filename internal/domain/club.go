package domain

import "time"

// Club is a group that users join through an invite code
type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	InviteCode  string    `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClubWithCount is a club together with its member count and the caller's role
type ClubWithCount struct {
	Club
	MemberCount int  `json:"member_count"`
	MyRole      Role `json:"my_role,omitempty"`
}

// ClubSummary is the dashboard view of a club
type ClubSummary struct {
	Club              Club       `json:"club"`
	MemberCount       int        `json:"member_count"`
	UpcomingSchedules []Schedule `json:"upcoming_schedules"`
	RecentPosts       []Post     `json:"recent_posts"`
}

// CreateClubRequest represents a club creation request
type CreateClubRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// JoinClubRequest represents a join-by-invite-code request
type JoinClubRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}
