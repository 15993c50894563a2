package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthProvider identifies how a user authenticates
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

// OTPChallenge is the pending email-verification code for a user.
// At most one challenge exists per user; issuing a new code replaces it.
type OTPChallenge struct {
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// User represents a user in the system
type User struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash *string       `json:"-"`
	DateOfBirth  *time.Time    `json:"date_of_birth,omitempty"`
	AuthProvider AuthProvider  `json:"auth_provider"`
	GoogleID     *string       `json:"-"`
	IsVerified   bool          `json:"is_verified"`
	OTP          *OTPChallenge `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// AuthUser is the safe projection of a user returned by auth endpoints.
// It never carries the password hash or the pending OTP challenge.
type AuthUser struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	DateOfBirth  *time.Time   `json:"date_of_birth,omitempty"`
	AuthProvider AuthProvider `json:"auth_provider"`
	IsVerified   bool         `json:"is_verified"`
}

// Safe returns the safe projection of the user.
func (u *User) Safe() *AuthUser {
	return &AuthUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		DateOfBirth:  u.DateOfBirth,
		AuthProvider: u.AuthProvider,
		IsVerified:   u.IsVerified,
	}
}
