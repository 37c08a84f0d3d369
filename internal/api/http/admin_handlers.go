package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/CodBad25/oral-dnb/internal/store"
)

// POST /admin/users  { "email", "password", "jury_number", "display_name" }
//
// Provisions one jury account. Email, password and jury number are all
// required; the created profile always carries the jury role so the
// admin surface cannot mint privileged accounts.
func (m *Manager) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.deps.Store == nil {
			http.Error(w, "remote store disabled", http.StatusNotImplemented)
			return
		}
		var req struct {
			Email       string `json:"email"`
			Password    string `json:"password"`
			JuryNumber  string `json:"jury_number"`
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" || req.JuryNumber == "" {
			http.Error(w, store.ErrMissingFields.Error(), http.StatusBadRequest)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		p := store.Profile{
			ID:           uuid.NewString(),
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         store.RoleJury,
			JuryNumber:   req.JuryNumber,
			DisplayName:  req.DisplayName,
			CreatedAt:    time.Now().Unix(),
		}
		if err := m.deps.Store.CreateProfile(r.Context(), p); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	}
}

// GET /admin/users
func (m *Manager) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.deps.Store == nil {
			http.Error(w, "remote store disabled", http.StatusNotImplemented)
			return
		}
		profiles, err := m.deps.Store.ListProfiles(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(profiles)
	}
}
