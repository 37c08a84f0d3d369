package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/export"
	"github.com/CodBad25/oral-dnb/internal/interchange"
	"github.com/CodBad25/oral-dnb/internal/session"
)

func attachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// ownStates lists the caller's finalized evaluations, whichever tier
// holds them.
func (m *Manager) ownStates(r *http.Request, rt *runtime) ([]session.EvaluationState, error) {
	if m.deps.Store == nil {
		return rt.drafts.History(), nil
	}
	id := auth.IdentityFromContext(r.Context())
	entries, err := m.deps.Store.ListForOwner(r.Context(), id.Sub)
	if err != nil {
		return nil, err
	}
	out := make([]session.EvaluationState, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.State)
	}
	return out, nil
}

// GET /export/pdf
//
// Renders the evaluation currently on screen.
func (m *Manager) ExportPDFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		st := rt.sess.State()
		if st.Candidate.Nom == "" {
			http.Error(w, "no candidate to export", http.StatusConflict)
			return
		}
		var buf bytes.Buffer
		if err := export.WritePDF(&buf, m.deps.Grille, []session.EvaluationState{st}); err != nil {
			http.Error(w, "render pdf: "+err.Error(), http.StatusInternalServerError)
			return
		}
		attachment(w, export.PDFFilename(st.Candidate), "application/pdf")
		_, _ = w.Write(buf.Bytes())
	}
}

// GET /export/pdf/all
func (m *Manager) ExportBulkPDFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		states, err := m.ownStates(r, rt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(states) == 0 {
			http.Error(w, "no evaluations to export", http.StatusConflict)
			return
		}
		var buf bytes.Buffer
		if err := export.WritePDF(&buf, m.deps.Grille, states); err != nil {
			http.Error(w, "render pdf: "+err.Error(), http.StatusInternalServerError)
			return
		}
		attachment(w, export.BulkPDFFilename(time.Now()), "application/pdf")
		_, _ = w.Write(buf.Bytes())
	}
}

// GET /export/csv
func (m *Manager) ExportCSVHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		states, err := m.ownStates(r, rt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		attachment(w, export.CSVFilename(time.Now()), "text/csv; charset=utf-8")
		if err := export.WriteCSV(w, m.deps.Grille, states); err != nil {
			http.Error(w, "write csv: "+err.Error(), http.StatusInternalServerError)
		}
	}
}

// GET /export/ranking.csv
//
// Cross-jury ranking over everything the caller can see.
func (m *Manager) ExportRankingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		tagged, err := m.collectTagged(r, rt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		attachment(w, export.RankingCSVFilename(time.Now()), "text/csv; charset=utf-8")
		if err := export.WriteRankingCSV(w, m.deps.Grille, tagged); err != nil {
			http.Error(w, "write csv: "+err.Error(), http.StatusInternalServerError)
		}
	}
}

// GET /export/json
//
// The portable jury file handed to the harmonization meeting.
func (m *Manager) ExportJSONHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		states, err := m.ownStates(r, rt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(states) == 0 {
			http.Error(w, "no evaluations to export", http.StatusConflict)
			return
		}
		jury := rt.sess.State().Jury
		if jury.JuryNumber == "" {
			jury = states[0].Jury
		}
		payload := interchange.Export(jury, states)
		data, err := payload.Encode()
		if err != nil {
			http.Error(w, "encode: "+err.Error(), http.StatusInternalServerError)
			return
		}
		attachment(w, payload.Filename(time.Now()), "application/json")
		_, _ = w.Write(data)
	}
}
