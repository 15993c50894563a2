package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hdnotes/api/internal/database"
	"github.com/hdnotes/api/internal/request"
	"github.com/hdnotes/api/internal/services/token"
)

// Auth creates authentication middleware that resolves the bearer token to a
// stored user and attaches it to the request context. Expired and malformed
// tokens produce distinct messages.
func Auth(users database.UserStore, tokens *token.Service, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					respondError(w, http.StatusUnauthorized, "Token expired. Please log in again.")
				} else {
					respondError(w, http.StatusUnauthorized, "Invalid token.")
				}
				return
			}

			ctx := r.Context()
			user, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					respondError(w, http.StatusUnauthorized, "Invalid token. User not found.")
					return
				}
				log.Error("auth_user_lookup_failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

// RequireVerified rejects authenticated requests from unverified accounts
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := request.UserFromContext(r)
		if user == nil {
			respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}
		if !user.IsVerified {
			respondError(w, http.StatusForbidden, "Account not verified. Please verify your account.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"message": message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
