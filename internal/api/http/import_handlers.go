package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/interchange"
)

type importedView struct {
	ID         string `json:"id"`
	ImportDate string `json:"importDate"`
	JuryNumber string `json:"juryNumber"`
	Candidates int    `json:"candidates"`
}

// GET /import
func (m *Manager) ListImportsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		juries := rt.imports.Juries()
		out := make([]importedView, 0, len(juries))
		for _, j := range juries {
			out = append(out, importedView{
				ID:         j.ID,
				ImportDate: j.ImportDate,
				JuryNumber: j.Payload.Jury.JuryNumber,
				Candidates: len(j.Payload.Candidates),
			})
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// POST /import
//
// Body is a raw jury file. Rejections carry the reason the import
// dialog shows; a duplicate jury number answers 409, format problems
// 422. Nothing is applied on rejection.
func (m *Manager) ImportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		payload, err := interchange.Decode(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err := rt.imports.Add(*payload); err != nil {
			var dup *interchange.DuplicateJuryError
			if errors.As(err, &dup) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"juryNumber": payload.Jury.JuryNumber,
			"candidates": len(payload.Candidates),
		})
	}
}

// DELETE /import/{id}
func (m *Manager) RemoveImportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		rt.imports.Remove(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /admin/import
//
// Write-through import: the jury file's candidates become real rows in
// the shared store, attributed to the file's jury number.
func (m *Manager) AdminImportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.deps.Store == nil {
			http.Error(w, "remote store disabled", http.StatusNotImplemented)
			return
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		payload, err := interchange.Decode(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		id := auth.IdentityFromContext(r.Context())
		created := 0
		for _, cand := range payload.Candidates {
			cand.Jury = payload.Jury
			if _, err := m.deps.Store.Create(r.Context(), id.Sub, payload.Jury.JuryNumber, cand); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			created++
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"created": created})
	}
}
