package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hdnotes/api/internal/database"
	"github.com/hdnotes/api/internal/models"
	"github.com/hdnotes/api/internal/request"
)

type fakeNoteStore struct {
	notes map[uuid.UUID]*models.Note
}

func newFakeNoteStore(notes ...*models.Note) *fakeNoteStore {
	s := &fakeNoteStore{notes: make(map[uuid.UUID]*models.Note)}
	for _, n := range notes {
		s.notes[n.ID] = n
	}
	return s
}

func (s *fakeNoteStore) Create(_ context.Context, note *models.Note) error {
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	s.notes[note.ID] = note
	return nil
}

func (s *fakeNoteStore) GetByUserIDPaginated(_ context.Context, userID uuid.UUID, page, pageSize int) ([]*models.Note, int, error) {
	var owned []*models.Note
	for _, n := range s.notes {
		if n.UserID == userID {
			owned = append(owned, n)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	total := len(owned)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return owned[start:end], total, nil
}

func (s *fakeNoteStore) UpdateOwned(_ context.Context, userID uuid.UUID, note *models.Note) error {
	existing, ok := s.notes[note.ID]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("note: %w", database.ErrNotFound)
	}
	existing.Title = note.Title
	existing.Content = note.Content
	existing.UpdatedAt = time.Now()
	*note = *existing
	return nil
}

func (s *fakeNoteStore) DeleteOwned(_ context.Context, userID, id uuid.UUID) error {
	existing, ok := s.notes[id]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("note: %w", database.ErrNotFound)
	}
	delete(s.notes, id)
	return nil
}

func newNotesRouter(store *fakeNoteStore) *mux.Router {
	r := mux.NewRouter()
	sub := r.PathPrefix("/notes").Subrouter()
	NewNoteHandler(store, zap.NewNop()).RegisterRoutes(sub)
	return r
}

func notesRequest(method, path string, body any, user *models.User) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(request.WithUser(req.Context(), user))
	}
	return req
}

func verifiedUser() *models.User {
	return &models.User{
		ID: uuid.New(), Name: "Pat", Email: "pat@example.com",
		AuthProvider: models.AuthProviderLocal, IsVerified: true,
	}
}

func TestCreateNote(t *testing.T) {
	t.Parallel()

	user := verifiedUser()
	store := newFakeNoteStore()
	router := newNotesRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, notesRequest(http.MethodPost, "/notes", map[string]string{
		"title": "Groceries", "content": "milk, eggs",
	}, user))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rr.Code, rr.Body.String())
	}
	if len(store.notes) != 1 {
		t.Fatalf("stored %d notes, want 1", len(store.notes))
	}
	for _, n := range store.notes {
		if n.UserID != user.ID {
			t.Error("note should belong to the requesting user")
		}
	}
}

func TestCreateNoteValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing title", body: map[string]string{"content": "text"}},
		{name: "missing content", body: map[string]string{"title": "t"}},
		{name: "title too long", body: map[string]string{"title": strings.Repeat("a", 201), "content": "text"}},
		{name: "content too long", body: map[string]string{"title": "t", "content": strings.Repeat("a", 5001)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newNotesRouter(newFakeNoteStore())
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, notesRequest(http.MethodPost, "/notes", tt.body, verifiedUser()))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400\nbody: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestListNotesPagination(t *testing.T) {
	t.Parallel()

	user := verifiedUser()
	store := newFakeNoteStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		store.notes[uuid.New()] = &models.Note{
			ID: uuid.New(), UserID: user.ID,
			Title: fmt.Sprintf("note %d", i), Content: "text",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	// Another user's note must never leak into the listing
	other := &models.Note{ID: uuid.New(), UserID: uuid.New(), Title: "secret", Content: "x", CreatedAt: base}
	store.notes[other.ID] = other

	router := newNotesRouter(store)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantPage  float64
		wantPages float64
	}{
		{name: "defaults", query: "", wantCount: 10, wantPage: 1, wantPages: 2},
		{name: "second page", query: "?page=2", wantCount: 5, wantPage: 2, wantPages: 2},
		{name: "custom limit", query: "?page=1&limit=5", wantCount: 5, wantPage: 1, wantPages: 3},
		{name: "bad params fall back", query: "?page=zero&limit=-3", wantCount: 10, wantPage: 1, wantPages: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, notesRequest(http.MethodGet, "/notes"+tt.query, nil, user))
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200\nbody: %s", rr.Code, rr.Body.String())
			}

			var body struct {
				Data struct {
					Notes      []map[string]any `json:"notes"`
					Pagination struct {
						Total      float64 `json:"total"`
						Page       float64 `json:"page"`
						TotalPages float64 `json:"total_pages"`
					} `json:"pagination"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid response JSON: %v", err)
			}

			if len(body.Data.Notes) != tt.wantCount {
				t.Errorf("returned %d notes, want %d", len(body.Data.Notes), tt.wantCount)
			}
			if body.Data.Pagination.Total != 15 {
				t.Errorf("total = %v, want 15", body.Data.Pagination.Total)
			}
			if body.Data.Pagination.Page != tt.wantPage {
				t.Errorf("page = %v, want %v", body.Data.Pagination.Page, tt.wantPage)
			}
			if body.Data.Pagination.TotalPages != tt.wantPages {
				t.Errorf("total_pages = %v, want %v", body.Data.Pagination.TotalPages, tt.wantPages)
			}
			for _, n := range body.Data.Notes {
				if n["title"] == "secret" {
					t.Error("another user's note leaked into the listing")
				}
			}
		})
	}
}

func TestUpdateNote(t *testing.T) {
	t.Parallel()

	user := verifiedUser()
	note := &models.Note{ID: uuid.New(), UserID: user.ID, Title: "old", Content: "old"}
	store := newFakeNoteStore(note)
	router := newNotesRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, notesRequest(http.MethodPut, "/notes/"+note.ID.String(), map[string]string{
		"title": "new", "content": "updated",
	}, user))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rr.Code, rr.Body.String())
	}
	if store.notes[note.ID].Title != "new" {
		t.Errorf("title = %s, want new", store.notes[note.ID].Title)
	}
}

func TestUpdateNoteOwnership(t *testing.T) {
	t.Parallel()

	owner := verifiedUser()
	note := &models.Note{ID: uuid.New(), UserID: owner.ID, Title: "t", Content: "c"}
	store := newFakeNoteStore(note)
	router := newNotesRouter(store)

	tests := []struct {
		name string
		path string
	}{
		{name: "someone else's note", path: "/notes/" + note.ID.String()},
		{name: "unknown id", path: "/notes/" + uuid.NewString()},
		{name: "malformed id", path: "/notes/not-a-uuid"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, notesRequest(http.MethodPut, tt.path, map[string]string{
				"title": "x", "content": "y",
			}, verifiedUser()))
			if rr.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404 for %s", rr.Code, tt.name)
			}
		})
	}
}

func TestDeleteNote(t *testing.T) {
	t.Parallel()

	user := verifiedUser()
	note := &models.Note{ID: uuid.New(), UserID: user.ID, Title: "t", Content: "c"}
	store := newFakeNoteStore(note)
	router := newNotesRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, notesRequest(http.MethodDelete, "/notes/"+note.ID.String(), nil, user))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rr.Code, rr.Body.String())
	}
	if len(store.notes) != 0 {
		t.Error("note should be deleted")
	}

	// Deleting again reports not found
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, notesRequest(http.MethodDelete, "/notes/"+note.ID.String(), nil, user))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 on repeat delete", rr.Code)
	}
}
