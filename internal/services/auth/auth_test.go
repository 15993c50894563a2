package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hdnotes/api/internal/database"
	"github.com/hdnotes/api/internal/models"
)

type fakeUserStore struct {
	users     map[uuid.UUID]*models.User
	createErr error
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", database.ErrNotFound)
	}
	return u, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", database.ErrNotFound)
}

func (s *fakeUserStore) GetByGoogleIDOrEmail(_ context.Context, googleID, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", database.ErrNotFound)
}

func (s *fakeUserStore) LinkGoogle(_ context.Context, id uuid.UUID, googleID string) error {
	u, ok := s.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.GoogleID = &googleID
	return nil
}

func (s *fakeUserStore) SaveOTP(_ context.Context, id uuid.UUID, otp *models.OTPChallenge) error {
	u, ok := s.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.OTP = otp
	return nil
}

func (s *fakeUserStore) IncrementOTPAttempts(_ context.Context, id uuid.UUID) error {
	return nil
}

func (s *fakeUserStore) MarkVerified(_ context.Context, id uuid.UUID) error {
	u, ok := s.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Issue(userID uuid.UUID, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + userID.String(), nil
}

type fakeOTPIssuer struct {
	issued []uuid.UUID
	err    error
}

func (f *fakeOTPIssuer) Issue(_ context.Context, userID uuid.UUID) error {
	f.issued = append(f.issued, userID)
	return f.err
}

func hashOf(t *testing.T, password string) *string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	s := string(hash)
	return &s
}

func TestRegisterLocal(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	otpIssuer := &fakeOTPIssuer{}
	svc := NewService(store, &fakeTokenIssuer{}, otpIssuer, zap.NewNop())

	result, err := svc.Register(context.Background(), RegisterParams{
		Name:     "Pat",
		Email:    "pat@example.com",
		Password: "Secret123",
		Provider: models.AuthProviderLocal,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.Token == "" {
		t.Error("expected a session token on registration")
	}
	if result.Verified {
		t.Error("local registration should start unverified")
	}
	if result.User.IsVerified {
		t.Error("returned user should be unverified")
	}
	if len(otpIssuer.issued) != 1 {
		t.Errorf("issued %d OTPs, want 1", len(otpIssuer.issued))
	}

	stored, err := store.GetByEmail(context.Background(), "pat@example.com")
	if err != nil {
		t.Fatalf("stored user not found: %v", err)
	}
	if stored.PasswordHash == nil {
		t.Fatal("password hash should be stored")
	}
	if bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("Secret123")) != nil {
		t.Error("stored hash should match the registered password")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	existing := &models.User{ID: uuid.New(), Email: "pat@example.com"}
	svc := NewService(newFakeUserStore(existing), &fakeTokenIssuer{}, &fakeOTPIssuer{}, zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterParams{
		Name:     "Pat",
		Email:    "pat@example.com",
		Password: "Secret123",
		Provider: models.AuthProviderLocal,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterSurvivesOTPFailure(t *testing.T) {
	t.Parallel()

	otpIssuer := &fakeOTPIssuer{err: errors.New("relay down")}
	svc := NewService(newFakeUserStore(), &fakeTokenIssuer{}, otpIssuer, zap.NewNop())

	result, err := svc.Register(context.Background(), RegisterParams{
		Name:     "Pat",
		Email:    "pat@example.com",
		Password: "Secret123",
		Provider: models.AuthProviderLocal,
	})
	if err != nil {
		t.Fatalf("Register() error = %v, want success despite OTP failure", err)
	}
	if result.Token == "" {
		t.Error("expected a session token")
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	googleID := "google-sub-1"

	tests := []struct {
		name         string
		user         *models.User
		email        string
		password     string
		wantErr      error
		wantVerified bool
		wantOTP      bool
	}{
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "Secret123",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "google-only account",
			user: &models.User{
				ID: uuid.New(), Email: "pat@example.com",
				AuthProvider: models.AuthProviderGoogle, GoogleID: &googleID, IsVerified: true,
			},
			email:    "pat@example.com",
			password: "Secret123",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			user: &models.User{
				ID: uuid.New(), Email: "pat@example.com",
				AuthProvider: models.AuthProviderLocal, IsVerified: true,
			},
			email:    "pat@example.com",
			password: "WrongPass1",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "unverified account",
			user: &models.User{
				ID: uuid.New(), Email: "pat@example.com",
				AuthProvider: models.AuthProviderLocal,
			},
			email:        "pat@example.com",
			password:     "Secret123",
			wantVerified: false,
			wantOTP:      true,
		},
		{
			name: "verified account",
			user: &models.User{
				ID: uuid.New(), Email: "pat@example.com",
				AuthProvider: models.AuthProviderLocal, IsVerified: true,
			},
			email:        "pat@example.com",
			password:     "Secret123",
			wantVerified: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeUserStore()
			if tt.user != nil {
				if tt.user.AuthProvider == models.AuthProviderLocal {
					tt.user.PasswordHash = hashOf(t, "Secret123")
				}
				store.users[tt.user.ID] = tt.user
			}
			otpIssuer := &fakeOTPIssuer{}
			svc := NewService(store, &fakeTokenIssuer{}, otpIssuer, zap.NewNop())

			result, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			if result.Verified != tt.wantVerified {
				t.Errorf("Verified = %t, want %t", result.Verified, tt.wantVerified)
			}
			if result.Token == "" {
				t.Error("expected a session token")
			}
			if gotOTP := len(otpIssuer.issued) > 0; gotOTP != tt.wantOTP {
				t.Errorf("OTP issued = %t, want %t", gotOTP, tt.wantOTP)
			}
		})
	}
}

func TestGoogleLogin(t *testing.T) {
	t.Parallel()

	t.Run("new user", func(t *testing.T) {
		t.Parallel()

		store := newFakeUserStore()
		svc := NewService(store, &fakeTokenIssuer{}, &fakeOTPIssuer{}, zap.NewNop())

		result, err := svc.GoogleLogin(context.Background(), "google-sub-1", "Pat", "pat@example.com")
		if err != nil {
			t.Fatalf("GoogleLogin() error = %v", err)
		}
		if !result.IsNewUser {
			t.Error("IsNewUser = false, want true")
		}
		if !result.Verified || !result.User.IsVerified {
			t.Error("google accounts should be verified at creation")
		}
	})

	t.Run("returning google user", func(t *testing.T) {
		t.Parallel()

		googleID := "google-sub-1"
		existing := &models.User{
			ID: uuid.New(), Name: "Pat", Email: "pat@example.com",
			AuthProvider: models.AuthProviderGoogle, GoogleID: &googleID, IsVerified: true,
		}
		svc := NewService(newFakeUserStore(existing), &fakeTokenIssuer{}, &fakeOTPIssuer{}, zap.NewNop())

		result, err := svc.GoogleLogin(context.Background(), googleID, "Pat Renamed", "other@example.com")
		if err != nil {
			t.Fatalf("GoogleLogin() error = %v", err)
		}
		if result.IsNewUser {
			t.Error("IsNewUser = true, want false")
		}
		if result.User.ID != existing.ID {
			t.Error("should resolve to the existing account")
		}
	})

	t.Run("links existing local account by email", func(t *testing.T) {
		t.Parallel()

		existing := &models.User{
			ID: uuid.New(), Name: "Pat", Email: "pat@example.com",
			AuthProvider: models.AuthProviderLocal, PasswordHash: hashOf(t, "Secret123"),
		}
		store := newFakeUserStore(existing)
		svc := NewService(store, &fakeTokenIssuer{}, &fakeOTPIssuer{}, zap.NewNop())

		result, err := svc.GoogleLogin(context.Background(), "google-sub-1", "Other Name", "pat@example.com")
		if err != nil {
			t.Fatalf("GoogleLogin() error = %v", err)
		}
		if result.IsNewUser {
			t.Error("IsNewUser = true, want false for a linked account")
		}
		if result.User.ID != existing.ID {
			t.Error("should link onto the existing account")
		}
		if result.User.Name != "Pat" {
			t.Errorf("Name = %s, linking must not overwrite the profile", result.User.Name)
		}
		if existing.GoogleID == nil || *existing.GoogleID != "google-sub-1" {
			t.Error("google id should be linked in the store")
		}
		if !result.Verified {
			t.Error("linked accounts are treated as verified")
		}
	})
}
