package models

import "github.com/google/uuid"

// TokenClaims is the payload carried by a session token
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}
