package handlers

import (
	"encoding/json"
	"net/http"
)

// envelope is the common response shape for every endpoint
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// respondSuccess sends a success envelope
func respondSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, envelope{Success: true, Message: message, Data: data})
}

// respondError sends a failure envelope
func respondError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{Success: false, Message: message})
}

// respondErrorWithDetails sends a failure envelope carrying field errors or
// other structured detail.
func respondErrorWithDetails(w http.ResponseWriter, status int, message string, details any) {
	writeEnvelope(w, status, envelope{Success: false, Message: message, Errors: details})
}

// respondFailureWithData sends a failure envelope that still carries data.
// Used for the unverified-login outcome, which hands back a usable token.
func respondFailureWithData(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, envelope{Success: false, Message: message, Data: data})
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// NotFoundHandler produces the 404 envelope for unknown routes
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route "+r.URL.Path+" not found")
	})
}
