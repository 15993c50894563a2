package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hdnotes/api/internal/database"
	"github.com/hdnotes/api/internal/models"
	"github.com/hdnotes/api/internal/request"
	"github.com/hdnotes/api/internal/validation"
)

const (
	defaultNotesPage  = 1
	defaultNotesLimit = 10
	maxNotesLimit     = 100
)

// NoteHandler handles note CRUD requests
type NoteHandler struct {
	notes database.NoteStore
	log   *zap.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(notes database.NoteStore, log *zap.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, log: log}
}

// RegisterRoutes registers the note routes on a verified-only subrouter
func (h *NoteHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.List).Methods("GET")
	r.HandleFunc("", h.Create).Methods("POST")
	r.HandleFunc("/{id}", h.Update).Methods("PUT")
	r.HandleFunc("/{id}", h.Delete).Methods("DELETE")
}

// NoteRequest is the body of POST and PUT note requests
type NoteRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}

// List returns the authenticated user's notes, newest first
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page := queryInt(r, "page", defaultNotesPage)
	limit := queryInt(r, "limit", defaultNotesLimit)
	if page < 1 {
		page = defaultNotesPage
	}
	if limit < 1 || limit > maxNotesLimit {
		limit = defaultNotesLimit
	}

	notes, total, err := h.notes.GetByUserIDPaginated(r.Context(), user.ID, page, limit)
	if err != nil {
		h.log.Error("notes_list_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	totalPages := (total + limit - 1) / limit
	respondSuccess(w, http.StatusOK, "Notes retrieved successfully", map[string]any{
		"notes": notes,
		"pagination": map[string]any{
			"total":       total,
			"page":        page,
			"limit":       limit,
			"total_pages": totalPages,
		},
	})
}

// Create stores a new note for the authenticated user
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req NoteRequest
	if !decodeBody(w, r, &req) || !validateBody(w, &req) {
		return
	}

	note := &models.Note{
		ID:      uuid.New(),
		UserID:  user.ID,
		Title:   validation.SanitizeText(req.Title),
		Content: validation.SanitizeText(req.Content),
	}
	if err := h.notes.Create(r.Context(), note); err != nil {
		h.log.Error("note_create_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondSuccess(w, http.StatusCreated, "Note created successfully", map[string]any{
		"note": note,
	})
}

// Update replaces the title and content of a note the user owns
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	noteID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	var req NoteRequest
	if !decodeBody(w, r, &req) || !validateBody(w, &req) {
		return
	}

	note := &models.Note{
		ID:      noteID,
		Title:   validation.SanitizeText(req.Title),
		Content: validation.SanitizeText(req.Content),
	}
	if err := h.notes.UpdateOwned(r.Context(), user.ID, note); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Note not found")
			return
		}
		h.log.Error("note_update_failed", zap.String("note_id", noteID.String()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondSuccess(w, http.StatusOK, "Note updated successfully", map[string]any{
		"note": note,
	})
}

// Delete removes a note the user owns
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	noteID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	if err := h.notes.DeleteOwned(r.Context(), user.ID, noteID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Note not found")
			return
		}
		h.log.Error("note_delete_failed", zap.String("note_id", noteID.String()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondSuccess(w, http.StatusOK, "Note deleted successfully", nil)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
