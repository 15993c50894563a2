package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/hdnotes/api/internal/models"
)

// UserStore defines the persistence operations the auth and OTP services need.
// This interface enables mock implementations in tests.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*models.User, error)
	LinkGoogle(ctx context.Context, id uuid.UUID, googleID string) error
	SaveOTP(ctx context.Context, id uuid.UUID, otp *models.OTPChallenge) error
	IncrementOTPAttempts(ctx context.Context, id uuid.UUID) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

// NoteStore defines the persistence operations the note handlers need
type NoteStore interface {
	Create(ctx context.Context, note *models.Note) error
	GetByUserIDPaginated(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.Note, int, error)
	UpdateOwned(ctx context.Context, userID uuid.UUID, note *models.Note) error
	DeleteOwned(ctx context.Context, userID, id uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserStore = (*UserRepository)(nil)
	_ NoteStore = (*NoteRepository)(nil)
)
