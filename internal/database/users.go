package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hdnotes/api/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, date_of_birth, auth_provider, google_id,
	is_verified, otp_code, otp_expires_at, otp_attempts, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var (
		passwordHash sql.NullString
		dateOfBirth  sql.NullTime
		googleID     sql.NullString
		otpCode      sql.NullString
		otpExpiresAt sql.NullTime
		otpAttempts  sql.NullInt32
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&passwordHash,
		&dateOfBirth,
		&user.AuthProvider,
		&googleID,
		&user.IsVerified,
		&otpCode,
		&otpExpiresAt,
		&otpAttempts,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if passwordHash.Valid {
		user.PasswordHash = &passwordHash.String
	}
	if dateOfBirth.Valid {
		user.DateOfBirth = &dateOfBirth.Time
	}
	if googleID.Valid {
		user.GoogleID = &googleID.String
	}
	if otpCode.Valid && otpExpiresAt.Valid {
		user.OTP = &models.OTPChallenge{
			Code:      otpCode.String,
			ExpiresAt: otpExpiresAt.Time,
			Attempts:  int(otpAttempts.Int32),
		}
	}

	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, date_of_birth, auth_provider, google_id, is_verified, created_at, updated_at)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7, $8, $9, $10)
		RETURNING email, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.DateOfBirth,
		user.AuthProvider,
		user.GoogleID,
		user.IsVerified,
		now,
		now,
	).Scan(&user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByGoogleIDOrEmail retrieves a user matching either the Google ID or the email
func (r *UserRepository) GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1 OR email = LOWER($2) LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID, email))
}

// LinkGoogle links an existing user to a Google identity. Name and email are
// left untouched; the account becomes verified.
func (r *UserRepository) LinkGoogle(ctx context.Context, id uuid.UUID, googleID string) error {
	query := `
		UPDATE users
		SET google_id = $2, auth_provider = $3, is_verified = TRUE, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, googleID, models.AuthProviderGoogle, time.Now())
	if err != nil {
		return fmt.Errorf("failed to link google identity: %w", err)
	}
	return checkAffected(result)
}

// SaveOTP stores the pending OTP challenge for a user, replacing any previous
// one. A nil challenge clears the pending challenge.
func (r *UserRepository) SaveOTP(ctx context.Context, id uuid.UUID, otp *models.OTPChallenge) error {
	query := `
		UPDATE users
		SET otp_code = $2, otp_expires_at = $3, otp_attempts = $4, updated_at = $5
		WHERE id = $1
	`

	var (
		code      *string
		expiresAt *time.Time
		attempts  *int
	)
	if otp != nil {
		code = &otp.Code
		expiresAt = &otp.ExpiresAt
		attempts = &otp.Attempts
	}

	result, err := r.db.ExecContext(ctx, query, id, code, expiresAt, attempts, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	return checkAffected(result)
}

// IncrementOTPAttempts bumps the attempt counter on the pending challenge
func (r *UserRepository) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET otp_attempts = COALESCE(otp_attempts, 0) + 1, updated_at = $2
		WHERE id = $1 AND otp_code IS NOT NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	return checkAffected(result)
}

// MarkVerified marks the user as verified and clears the pending challenge
func (r *UserRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, otp_code = NULL, otp_expires_at = NULL, otp_attempts = NULL, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}
