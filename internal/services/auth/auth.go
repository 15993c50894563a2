// Package auth orchestrates registration, local login, and Google-federated
// login over the credential store, the OTP engine, and the token issuer.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hdnotes/api/internal/database"
	"github.com/hdnotes/api/internal/logger"
	"github.com/hdnotes/api/internal/models"
)

// bcryptCost matches the work factor used for all stored password hashes
const bcryptCost = 12

var (
	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("user already exists with this email")
	// ErrInvalidCredentials covers unknown email, google-only accounts, and
	// wrong passwords alike, to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOperationFailed hides persistence failures behind a generic message
	ErrOperationFailed = errors.New("operation failed")
)

// TokenIssuer creates signed session tokens
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, error)
}

// OTPIssuer triggers a verification code delivery
type OTPIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID) error
}

// Service implements the authentication flows
type Service struct {
	users  database.UserStore
	tokens TokenIssuer
	otp    OTPIssuer
	log    *zap.Logger
}

// NewService creates the auth orchestrator
func NewService(users database.UserStore, tokens TokenIssuer, otp OTPIssuer, log *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, otp: otp, log: log}
}

// RegisterParams are the inputs to Register
type RegisterParams struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth *time.Time
	Provider    models.AuthProvider
	GoogleID    string
}

// Result is the outcome of a successful auth operation. Verified=false marks
// the distinguished non-success login outcome that still carries a usable
// token so the client can go straight to OTP entry.
type Result struct {
	User      *models.AuthUser
	Token     string
	Verified  bool
	IsNewUser bool
}

// Register creates a new account. Google-provider registrations are verified
// at creation; local ones enter the pending-verification state and receive an
// OTP email, whose delivery failure is logged but not fatal.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Result, error) {
	if _, err := s.users.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		s.log.Error("register_lookup_failed", zap.Error(err))
		return nil, ErrOperationFailed
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		DateOfBirth:  params.DateOfBirth,
		AuthProvider: params.Provider,
		IsVerified:   params.Provider == models.AuthProviderGoogle,
	}
	if params.GoogleID != "" {
		user.GoogleID = &params.GoogleID
	}

	if params.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
		if err != nil {
			s.log.Error("register_hash_failed", zap.Error(err))
			return nil, ErrOperationFailed
		}
		hashStr := string(hash)
		user.PasswordHash = &hashStr
	}

	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		s.log.Error("register_create_failed", zap.Error(err))
		return nil, ErrOperationFailed
	}

	tokenStr, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.log.Error("register_token_failed", zap.Error(err))
		return nil, ErrOperationFailed
	}

	if params.Provider == models.AuthProviderLocal {
		if err := s.otp.Issue(ctx, user.ID); err != nil {
			// Registration still succeeds; the user can request a resend.
			s.log.Warn("register_otp_failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.log.Info("user_registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.String("provider", string(user.AuthProvider)),
	)

	return &Result{User: user.Safe(), Token: tokenStr, Verified: user.IsVerified}, nil
}

// Login verifies local credentials. Unknown email, google-only accounts, and
// wrong passwords all fail identically. An unverified account gets a fresh
// OTP and a Verified=false result that still carries a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.log.Error("login_lookup_failed", zap.Error(err))
		return nil, ErrOperationFailed
	}

	if user.AuthProvider != models.AuthProviderLocal || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokenStr, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.log.Error("login_token_failed", zap.Error(err))
		return nil, ErrOperationFailed
	}

	if !user.IsVerified {
		if err := s.otp.Issue(ctx, user.ID); err != nil {
			s.log.Warn("login_otp_failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
		}
		return &Result{User: user.Safe(), Token: tokenStr, Verified: false}, nil
	}

	s.log.Info("user_logged_in", zap.String("user_id", user.ID.String()))
	return &Result{User: user.Safe(), Token: tokenStr, Verified: true}, nil
}

// GoogleLogin signs in a Google-federated identity, creating a verified
// account on first sight or linking the identity onto an existing account
// matched by email.
func (s *Service) GoogleLogin(ctx context.Context, googleID, name, email string) (*Result, error) {
	user, err := s.users.GetByGoogleIDOrEmail(ctx, googleID, email)
	isNew := false

	switch {
	case errors.Is(err, database.ErrNotFound):
		user = &models.User{
			ID:           uuid.New(),
			Name:         name,
			Email:        email,
			AuthProvider: models.AuthProviderGoogle,
			GoogleID:     &googleID,
			IsVerified:   true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			s.log.Error("google_create_failed", zap.Error(err))
			return nil, ErrOperationFailed
		}
		isNew = true

	case err != nil:
		s.log.Error("google_lookup_failed", zap.Error(err))
		return nil, ErrOperationFailed

	case user.GoogleID == nil:
		// Existing local account with a matching email: link it in place
		// without overwriting name or email.
		if err := s.users.LinkGoogle(ctx, user.ID, googleID); err != nil {
			s.log.Error("google_link_failed", zap.Error(err))
			return nil, ErrOperationFailed
		}
		user.GoogleID = &googleID
		user.AuthProvider = models.AuthProviderGoogle
		user.IsVerified = true
	}

	tokenStr, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.log.Error("google_token_failed", zap.Error(err))
		return nil, ErrOperationFailed
	}

	s.log.Info("google_login",
		zap.String("user_id", user.ID.String()),
		zap.Bool("is_new_user", isNew),
	)

	return &Result{User: user.Safe(), Token: tokenStr, Verified: true, IsNewUser: isNew}, nil
}
