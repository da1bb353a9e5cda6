package domain

import (
	"strings"
	"time"
)

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasPassword reports whether the user can log in. Users created by a club
// admin through AddMemberByEmail have no password until they register.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// NormalizeEmail lower-cases and trims an address so lookups are case insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest represents a sign-up submission
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents a login submission
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// ClientIP is filled in by the HTTP layer and scopes the failed-login counter
	ClientIP string `json:"-"`
}

// AuthResponse is returned after a successful login
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// AuthClaims represents the verified contents of a session token
type AuthClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}
