package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxNoteTitleLength is the maximum length for a note title
	MaxNoteTitleLength = 200
	// MaxNoteContentLength is the maximum length for note content
	MaxNoteContentLength = 5000
)

// Note represents a note owned by exactly one user
type Note struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
