package domain

import (
	"strings"
	"time"
)

// Role is a member's standing within a club
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ParseRole converts user input into a Role
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Label returns the display name of the role
func (r Role) Label() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleAdmin:
		return "Admin"
	case RoleMember:
		return "Member"
	}
	return string(r)
}

// CanManage reports whether the role may manage members, schedules and other people's posts
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership links a user to a club with a role
type Membership struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	ClubID   string    `json:"club_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Member is a membership joined with the user it belongs to
type Member struct {
	Membership
	Name      string `json:"name"`
	Email     string `json:"email"`
	RoleLabel string `json:"role_label"`
}

// AddMemberRequest represents an add-by-email request
type AddMemberRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

// UpdateRoleRequest represents a role change
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=OWNER ADMIN MEMBER"`
}
