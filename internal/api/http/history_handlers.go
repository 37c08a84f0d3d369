package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/session"
	"github.com/CodBad25/oral-dnb/internal/store"
)

// localEntry is how local-only history rows are listed: no remote id,
// addressed by position.
type localEntry struct {
	Index int                     `json:"index"`
	State session.EvaluationState `json:"state"`
}

// GET /evaluations
func (m *Manager) ListOwnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		if m.deps.Store == nil {
			history := rt.drafts.History()
			out := make([]localEntry, len(history))
			for i, st := range history {
				out[i] = localEntry{Index: i, State: st}
			}
			_ = json.NewEncoder(w).Encode(out)
			return
		}
		id := auth.IdentityFromContext(r.Context())
		entries, err := m.deps.Store.ListForOwner(r.Context(), id.Sub)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(entries)
	}
}

// DELETE /evaluations/{id}
func (m *Manager) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		key := strings.TrimSpace(chi.URLParam(r, "id"))
		if key == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}

		if m.deps.Store == nil {
			idx, err := strconv.Atoi(key)
			history := rt.drafts.History()
			if err != nil || idx < 0 || idx >= len(history) {
				http.Error(w, "history index out of range", http.StatusNotFound)
				return
			}
			rt.drafts.SaveHistory(append(history[:idx], history[idx+1:]...))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		row, err := m.deps.Store.Get(r.Context(), key)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "evaluation not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		id := auth.IdentityFromContext(r.Context())
		role, _ := store.ParseRole(id.Role)
		if row.UserID != id.Sub && role != store.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err := m.deps.Store.Delete(r.Context(), key); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if rt.adapter.RemoteID() == key {
			rt.adapter.DropRemoteTarget()
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /evaluations/all
func (m *Manager) ListAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.deps.Store == nil {
			http.Error(w, "remote store disabled", http.StatusNotImplemented)
			return
		}
		entries, err := m.deps.Store.ListAll(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(entries)
	}
}

// GET /juries
func (m *Manager) ListJuriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.deps.Store == nil {
			http.Error(w, "remote store disabled", http.StatusNotImplemented)
			return
		}
		numbers, err := m.deps.Store.JuryNumbers(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(numbers)
	}
}

// GET /juries/{juryNumber}/evaluations
func (m *Manager) ListByJuryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.deps.Store == nil {
			http.Error(w, "remote store disabled", http.StatusNotImplemented)
			return
		}
		jn := strings.TrimSpace(chi.URLParam(r, "juryNumber"))
		if jn == "" {
			http.Error(w, "juryNumber required", http.StatusBadRequest)
			return
		}
		entries, err := m.deps.Store.ListByJury(r.Context(), jn)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(entries)
	}
}
