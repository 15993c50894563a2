// Package token issues and validates the signed session tokens handed to
// clients after authentication.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/hdnotes/api/internal/models"
)

const issuerName = "hd-notes-api"

// DefaultExpiry is the default session token lifetime
const DefaultExpiry = 7 * 24 * time.Hour

var (
	// ErrExpired is returned for structurally valid tokens past their expiry
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned for tokens that fail parsing or signature checks
	ErrInvalid = errors.New("token invalid")
)

// Service signs and verifies session tokens
type Service struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewService creates a token service signing with the given HMAC secret.
// A non-positive expiry falls back to DefaultExpiry.
func NewService(secret string, expiry time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Service{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token binding the user id and email
func (s *Service) Issue(userID uuid.UUID, email string) (string, error) {
	now := s.now()
	tok, err := jwt.NewBuilder().
		Issuer(issuerName).
		Subject(userID.String()).
		Claim("email", email).
		IssuedAt(now).
		Expiration(now.Add(s.expiry)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Validate verifies signature and expiry, returning the embedded claims.
// Expiry and all other failures are reported distinctly so callers can
// surface them as different unauthenticated responses.
func (s *Service) Validate(tokenString string) (*models.TokenClaims, error) {
	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuerName),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	userID, err := uuid.Parse(tok.Subject())
	if err != nil {
		return nil, ErrInvalid
	}

	email, _ := tok.Get("email")
	emailStr, ok := email.(string)
	if !ok || emailStr == "" {
		return nil, ErrInvalid
	}

	return &models.TokenClaims{UserID: userID, Email: emailStr}, nil
}
