package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hdnotes/api/internal/models"
	"github.com/hdnotes/api/internal/request"
	"github.com/hdnotes/api/internal/services/auth"
	"github.com/hdnotes/api/internal/services/google"
	"github.com/hdnotes/api/internal/services/otp"
	"github.com/hdnotes/api/internal/validation"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	auth     *auth.Service
	otp      *otp.Service
	verifier *google.Verifier
	exchange *google.Client
	log      *zap.Logger
}

// AuthHandlerOption configures optional collaborators
type AuthHandlerOption func(*AuthHandler)

// WithGoogleVerifier enables ID-token verification on /auth/google
func WithGoogleVerifier(v *google.Verifier) AuthHandlerOption {
	return func(h *AuthHandler) { h.verifier = v }
}

// WithGoogleExchange enables server-side authorization-code exchange
func WithGoogleExchange(c *google.Client) AuthHandlerOption {
	return func(h *AuthHandler) { h.exchange = c }
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *auth.Service, otpSvc *otp.Service, log *zap.Logger, opts ...AuthHandlerOption) *AuthHandler {
	h := &AuthHandler{auth: authSvc, otp: otpSvc, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterPublicRoutes registers the unauthenticated auth routes
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/google", h.GoogleAuth).Methods("POST")
}

// RegisterProtectedRoutes registers the token-protected auth routes
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/profile", h.Profile).Methods("GET")
	r.HandleFunc("/send-otp", h.SendOTP).Methods("POST")
	r.HandleFunc("/resend-otp", h.ResendOTP).Methods("POST")
	r.HandleFunc("/verify-otp", h.VerifyOTP).Methods("POST")
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"omitempty,min=8,password"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleAuthRequest is the body of POST /auth/google. Either the profile
// fields are posted directly, or a credential / authorization code is
// supplied for the backend to verify.
type GoogleAuthRequest struct {
	GoogleID   string `json:"googleId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Credential string `json:"credential"`
	Code       string `json:"code"`
}

// VerifyOTPRequest is the body of POST /auth/verify-otp
type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func validateBody(w http.ResponseWriter, body any) bool {
	if err := validation.Validate.Struct(body); err != nil {
		respondErrorWithDetails(w, http.StatusBadRequest, "Validation failed", validation.FieldErrors(err))
		return false
	}
	return true
}

// Register creates a local account and triggers OTP delivery
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) || !validateBody(w, &req) {
		return
	}

	params := auth.RegisterParams{
		Name:     validation.SanitizeText(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Provider: models.AuthProviderLocal,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Please provide a valid date of birth")
			return
		}
		params.DateOfBirth = &dob
	}

	result, err := h.auth.Register(r.Context(), params)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondSuccess(w, http.StatusCreated, "Please check your email for verification code.", map[string]any{
		"user":  result.User,
		"token": result.Token,
	})
}

// Login authenticates local credentials. Unverified accounts receive a fresh
// OTP and a non-success response that still carries a usable token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) || !validateBody(w, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !result.Verified {
		respondFailureWithData(w, http.StatusBadRequest,
			"Please verify your email first. A new verification code has been sent.",
			map[string]any{
				"user":  result.User,
				"token": result.Token,
			})
		return
	}

	respondSuccess(w, http.StatusOK, "Login successful", map[string]any{
		"user":  result.User,
		"token": result.Token,
	})
}

// GoogleAuth signs in a Google identity, verifying the posted credential when
// a verifier is configured.
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()

	if req.Code != "" && h.exchange != nil {
		credential, err := h.exchange.ExchangeCode(ctx, req.Code)
		if err != nil {
			h.log.Warn("google_code_exchange_failed", zap.Error(err))
			respondError(w, http.StatusUnauthorized, "Google sign-in failed")
			return
		}
		req.Credential = credential
	}

	if req.Credential != "" && h.verifier != nil {
		claims, err := h.verifier.Verify(ctx, req.Credential)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Google sign-in failed")
			return
		}
		req.GoogleID = claims.Sub
		req.Name = claims.Name
		req.Email = claims.Email
	}

	if req.GoogleID == "" || req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "googleId, name and email are required")
		return
	}

	result, err := h.auth.GoogleLogin(ctx, req.GoogleID, req.Name, req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusOK
	message := "Login successful"
	if result.IsNewUser {
		status = http.StatusCreated
		message = "Account created successfully"
	}
	respondSuccess(w, status, message, map[string]any{
		"user":      result.User,
		"token":     result.Token,
		"isNewUser": result.IsNewUser,
	})
}

// Profile returns the authenticated user
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	respondSuccess(w, http.StatusOK, "Profile retrieved successfully", map[string]any{
		"user": user.Safe(),
	})
}

// SendOTP issues a fresh verification code to the authenticated user
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.otp.Issue(r.Context(), user.ID); err != nil {
		h.respondOTPError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Verification code sent to your email", nil)
}

// ResendOTP re-issues a code subject to the resend cooldown
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.otp.Resend(r.Context(), user.ID); err != nil {
		h.respondOTPError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Verification code sent to your email", nil)
}

// VerifyOTP checks the submitted code and marks the account verified
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req VerifyOTPRequest
	if !decodeBody(w, r, &req) || !validateBody(w, &req) {
		return
	}

	if err := h.otp.Verify(r.Context(), user.ID, req.OTP); err != nil {
		h.respondOTPError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Email verified successfully", nil)
}

// respondOTPError maps OTP service errors onto the envelope. Policy failures
// surface their own messages; anything else is a generic 500.
func (h *AuthHandler) respondOTPError(w http.ResponseWriter, err error) {
	var throttled *otp.ThrottledError
	switch {
	case errors.As(err, &throttled),
		errors.Is(err, otp.ErrUserNotFound),
		errors.Is(err, otp.ErrAlreadyVerified),
		errors.Is(err, otp.ErrDeliveryFailed),
		errors.Is(err, otp.ErrInvalidOrExpired),
		errors.Is(err, otp.ErrExpired),
		errors.Is(err, otp.ErrInvalidCode):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("otp_operation_failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
