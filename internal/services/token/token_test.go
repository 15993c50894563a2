package token

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewService(t *testing.T) {
	t.Parallel()

	if _, err := NewService("", time.Hour); err == nil {
		t.Error("NewService() with empty secret should fail")
	}

	svc, err := NewService("test-secret", 0)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc.expiry != DefaultExpiry {
		t.Errorf("expiry = %v, want DefaultExpiry", svc.expiry)
	}
}

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()

	svc, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	userID := uuid.New()
	signed, err := svc.Issue(userID, "pat@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := svc.Validate(signed)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "pat@example.com" {
		t.Errorf("Email = %s, want pat@example.com", claims.Email)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	t.Parallel()

	svc, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	signed, err := svc.Issue(uuid.New(), "pat@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := svc.Validate(signed); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate() error = %v, want ErrExpired", err)
	}
}

func TestValidateRejectsBadTokens(t *testing.T) {
	t.Parallel()

	svc, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	other, err := NewService("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	foreign, err := other.Issue(uuid.New(), "pat@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "wrong signing key", token: foreign},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := svc.Validate(tt.token); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate(%q) error = %v, want ErrInvalid", tt.name, err)
			}
		})
	}
}
