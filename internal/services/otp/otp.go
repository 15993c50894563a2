// Package otp implements the one-time-code policy: generation, expiry,
// attempt throttling, resend cooldowns, and verification.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hdnotes/api/internal/database"
	"github.com/hdnotes/api/internal/logger"
	"github.com/hdnotes/api/internal/mail"
	"github.com/hdnotes/api/internal/models"
)

const (
	// CodeExpiry is how long an issued code stays valid
	CodeExpiry = 10 * time.Minute
	// MaxAttempts is the number of wrong codes tolerated before issuance locks
	MaxAttempts = 3
	// LockoutWindow is how long issuance stays locked after MaxAttempts
	LockoutWindow = 30 * time.Minute
	// ResendCooldown is the minimum gap between issuances via Resend
	ResendCooldown = 2 * time.Minute
)

var (
	// ErrUserNotFound is returned when the user id does not resolve
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyVerified is returned by Resend for verified accounts
	ErrAlreadyVerified = errors.New("email is already verified")
	// ErrDeliveryFailed is returned when the outbound email fails. The
	// persisted challenge survives, so a later resend can retry delivery.
	ErrDeliveryFailed = errors.New("failed to send verification email")
	// ErrInvalidOrExpired is returned by Verify when no challenge is pending
	ErrInvalidOrExpired = errors.New("invalid or expired verification code")
	// ErrExpired is returned by Verify when the pending code is past expiry
	ErrExpired = errors.New("verification code has expired")
	// ErrInvalidCode is returned by Verify on a code mismatch. The message is
	// deliberately silent about how many attempts remain.
	ErrInvalidCode = errors.New("invalid verification code")
)

// ThrottleKind distinguishes the two issuance throttles
type ThrottleKind string

const (
	ThrottleTooManyAttempts ThrottleKind = "too_many_attempts"
	ThrottleResendTooSoon   ThrottleKind = "resend_too_soon"
)

// ThrottledError reports a rejected issuance with the remaining wait,
// ceiling-rounded to whole minutes.
type ThrottledError struct {
	Kind    ThrottleKind
	Minutes int
}

func (e *ThrottledError) Error() string {
	if e.Kind == ThrottleResendTooSoon {
		return fmt.Sprintf("Please wait %d minutes before requesting a new code", e.Minutes)
	}
	return fmt.Sprintf("Too many attempts. Try again after %d minutes", e.Minutes)
}

// Service is the OTP policy engine
type Service struct {
	users  database.UserStore
	mailer mail.Mailer
	log    *zap.Logger
	now    func() time.Time
}

// NewService creates an OTP service over the given user store and mailer
func NewService(users database.UserStore, mailer mail.Mailer, log *zap.Logger) *Service {
	return &Service{
		users:  users,
		mailer: mailer,
		log:    log,
		now:    time.Now,
	}
}

// Issue generates a fresh 6-digit code for the user, persists it as the single
// pending challenge (replacing any previous one), and emails it. The attempts
// counter carries over from the previous challenge unless the lockout window
// has passed, in which case it resets to zero.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	attempts := 0
	if user.OTP != nil {
		attempts = user.OTP.Attempts
		if attempts >= MaxAttempts {
			elapsed := s.now().Sub(user.OTP.ExpiresAt)
			if elapsed < LockoutWindow {
				return &ThrottledError{
					Kind:    ThrottleTooManyAttempts,
					Minutes: ceilMinutes(LockoutWindow - elapsed),
				}
			}
			attempts = 0
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	challenge := &models.OTPChallenge{
		Code:      code,
		ExpiresAt: s.now().Add(CodeExpiry),
		Attempts:  attempts,
	}
	if err := s.users.SaveOTP(ctx, user.ID, challenge); err != nil {
		return fmt.Errorf("failed to persist challenge: %w", err)
	}

	body, err := mail.OTPEmailBody(user.Name, code, int(CodeExpiry.Minutes()))
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	if err := s.mailer.Send(ctx, user.Email, mail.OTPEmailSubject, body); err != nil {
		s.log.Warn("otp_delivery_failed",
			zap.String("user_id", user.ID.String()),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
		return ErrDeliveryFailed
	}

	s.log.Info("otp_issued",
		zap.String("user_id", user.ID.String()),
		zap.Int("attempts", attempts),
	)
	return nil
}

// Resend re-issues a code, enforcing the two-minute cooldown since the
// previous issuance. Verified accounts are rejected outright.
func (s *Service) Resend(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if user.OTP != nil {
		issuedAt := user.OTP.ExpiresAt.Add(-CodeExpiry)
		elapsed := s.now().Sub(issuedAt)
		if elapsed < ResendCooldown {
			return &ThrottledError{
				Kind:    ThrottleResendTooSoon,
				Minutes: ceilMinutes(ResendCooldown - elapsed),
			}
		}
	}

	return s.Issue(ctx, userID)
}

// Verify checks a submitted code. Checks run in order: a challenge must
// exist, must not be expired, and must match. A mismatch increments the
// attempt counter; a match marks the account verified and clears the
// challenge.
func (s *Service) Verify(ctx context.Context, userID uuid.UUID, submitted string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user.OTP == nil {
		return ErrInvalidOrExpired
	}

	if s.now().After(user.OTP.ExpiresAt) {
		return ErrExpired
	}

	if user.OTP.Code != submitted {
		if err := s.users.IncrementOTPAttempts(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		return ErrInvalidCode
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to mark verified: %w", err)
	}

	s.log.Info("otp_verified", zap.String("user_id", user.ID.String()))
	return nil
}

// generateCode returns a uniformly random 6-digit numeric code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func ceilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
