package http

import (
	"encoding/json"
	"net/http"

	"github.com/CodBad25/oral-dnb/internal/analytics"
	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/score"
	"github.com/CodBad25/oral-dnb/internal/store"
)

// collectTagged gathers the evaluations visible to the caller: a jury
// sees its own finalized rows plus whatever it imported; admin and
// principal see every jury's rows.
func (m *Manager) collectTagged(r *http.Request, rt *runtime) ([]analytics.Tagged, error) {
	id := auth.IdentityFromContext(r.Context())
	role, _ := store.ParseRole(id.Role)

	if m.deps.Store == nil {
		return rt.imports.Tagged(rt.drafts.History(), id.JuryNumber), nil
	}

	var entries []store.Entry
	var err error
	if role.CanViewAllJuries() {
		entries, err = m.deps.Store.ListAll(r.Context())
	} else {
		entries, err = m.deps.Store.ListForOwner(r.Context(), id.Sub)
	}
	if err != nil {
		return nil, err
	}

	tagged := make([]analytics.Tagged, 0, len(entries))
	for _, e := range entries {
		jn := e.JuryNumber
		if jn == "" {
			jn = e.State.Jury.JuryNumber
		}
		tagged = append(tagged, analytics.Tagged{State: e.State, JuryNumber: jn})
	}
	// Imported payloads only enrich a jury's own view; the all-juries
	// views already see the real rows.
	if !role.CanViewAllJuries() {
		for _, imp := range rt.imports.Juries() {
			for _, cand := range imp.Payload.Candidates {
				tagged = append(tagged, analytics.Tagged{State: cand, JuryNumber: imp.Payload.Jury.JuryNumber})
			}
		}
	}
	return tagged, nil
}

type analyticsView struct {
	Count         int                                `json:"count"`
	Global        analytics.Stats                    `json:"global"`
	ByJury        []analytics.JuryStats              `json:"byJury"`
	Bands         []score.Range                      `json:"bands"`
	Histogram     []int                              `json:"histogram"`
	Criteria      map[string]analytics.Stats         `json:"criteria"`
	Mastery       map[string]analytics.MasteryCounts `json:"mastery"`
	GlobalMastery analytics.MasteryCounts            `json:"globalMastery"`
}

// GET /analytics
func (m *Manager) AnalyticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		g := m.deps.Grille
		tagged, err := m.collectTagged(r, rt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		view := analyticsView{
			Count:         len(tagged),
			Global:        analytics.GlobalStats(tagged),
			ByJury:        analytics.ByJury(tagged),
			Bands:         analytics.HistogramBands(),
			Histogram:     analytics.Histogram(tagged),
			Criteria:      analytics.CriterionStats(g, tagged),
			Mastery:       analytics.MasteryDistribution(g, tagged),
			GlobalMastery: analytics.GlobalMasteryDistribution(g, tagged),
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}
