package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/score"
	"github.com/CodBad25/oral-dnb/internal/session"
	"github.com/CodBad25/oral-dnb/internal/store"
)

// sessionView is the state the client renders after every mutation.
type sessionView struct {
	State         session.EvaluationState `json:"state"`
	SectionIndex  int                     `json:"sectionIndex"`
	SectionTotals map[int]float64         `json:"sectionTotals"`
	Total         float64                 `json:"total"`
	Savable       bool                    `json:"savable"`
}

func (m *Manager) view(rt *runtime) sessionView {
	st := rt.sess.State()
	totals := map[int]float64{}
	for _, s := range m.deps.Grille.Sections {
		totals[s.ID] = score.SectionTotal(st.Scores, s)
	}
	return sessionView{
		State:         st,
		SectionIndex:  rt.sess.SectionIndex(),
		SectionTotals: totals,
		Total:         score.GrandTotal(st.Scores),
		Savable:       st.Savable(),
	}
}

// withRuntime resolves the caller's session bundle or fails the
// request.
func (m *Manager) withRuntime(w http.ResponseWriter, r *http.Request) (*runtime, bool) {
	id := auth.IdentityFromContext(r.Context())
	if id.Sub == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return nil, false
	}
	rt, err := m.runtime(r.Context(), id)
	if err != nil {
		http.Error(w, "open session: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return rt, true
}

func (m *Manager) writeView(w http.ResponseWriter, rt *runtime) {
	_ = json.NewEncoder(w).Encode(m.view(rt))
}

// GET /session
func (m *Manager) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		m.writeView(w, rt)
	}
}

// GET /grille
func (m *Manager) GetGrilleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(m.deps.Grille)
	}
}

// PUT /session/jury
func (m *Manager) SetJuryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		var j session.JuryInfo
		if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		rt.sess.SetJury(j)
		m.writeView(w, rt)
	}
}

// PUT /session/candidate
func (m *Manager) SetCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		var c session.CandidateInfo
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		rt.sess.SetCandidate(c)
		m.writeView(w, rt)
	}
}

// PUT /session/scores/{criterionID}
func (m *Manager) SetScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		criterionID := strings.TrimSpace(chi.URLParam(r, "criterionID"))
		var req struct {
			Points float64 `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := rt.sess.SetScore(criterionID, req.Points); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		m.writeView(w, rt)
	}
}

// PUT /session/comments
func (m *Manager) SetCommentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		var req struct {
			Comments string `json:"comments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		rt.sess.SetComments(req.Comments)
		m.writeView(w, rt)
	}
}

// PUT /session/timers/{phase}
//
// Manual entry: records a phase duration without touching the running
// countdown.
func (m *Manager) SetTimerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		phase, _, ok := m.phaseTimer(w, r, rt)
		if !ok {
			return
		}
		var req session.TimerData
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		rt.sess.SetTimerData(phase, req.ExpectedSeconds, req.ActualSeconds)
		m.writeView(w, rt)
	}
}

// timerView is the countdown state the client polls while a phase runs.
type timerView struct {
	Phase     session.Phase     `json:"phase"`
	Running   bool              `json:"running"`
	Clock     string            `json:"clock"`
	Remaining int               `json:"remainingSeconds"`
	Overtime  bool              `json:"overtime"`
	Alert     bool              `json:"alert"`
	Data      session.TimerData `json:"data"`
}

func (m *Manager) phaseTimer(w http.ResponseWriter, r *http.Request, rt *runtime) (session.Phase, *session.PhaseTimer, bool) {
	phase := session.Phase(chi.URLParam(r, "phase"))
	t, ok := rt.timers[phase]
	if !ok {
		http.Error(w, "unknown phase", http.StatusBadRequest)
		return "", nil, false
	}
	return phase, t, true
}

func (m *Manager) writeTimer(w http.ResponseWriter, phase session.Phase, t *session.PhaseTimer) {
	_ = json.NewEncoder(w).Encode(timerView{
		Phase:     phase,
		Running:   t.Running(),
		Clock:     t.Clock(),
		Remaining: int(t.Remaining().Seconds()),
		Overtime:  t.Overtime(),
		Alert:     t.Alert(),
		Data:      t.Data(),
	})
}

// GET /session/timers/{phase}
func (m *Manager) TimerStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		phase, t, ok := m.phaseTimer(w, r, rt)
		if !ok {
			return
		}
		m.writeTimer(w, phase, t)
	}
}

// POST /session/timers/{phase}/start  { "expectedSeconds": n }?
//
// Starts or resumes the countdown; a positive expectedSeconds resets
// it to that duration first.
func (m *Manager) StartTimerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		phase, t, ok := m.phaseTimer(w, r, rt)
		if !ok {
			return
		}
		var req struct {
			ExpectedSeconds int `json:"expectedSeconds"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if req.ExpectedSeconds > 0 {
			t.SetDuration(time.Duration(req.ExpectedSeconds) * time.Second)
		}
		t.Start()
		m.writeTimer(w, phase, t)
	}
}

// POST /session/timers/{phase}/pause
//
// Freezes the countdown and records the elapsed time on the
// evaluation, so the exported documents carry the actual duration.
func (m *Manager) PauseTimerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		phase, t, ok := m.phaseTimer(w, r, rt)
		if !ok {
			return
		}
		t.Pause()
		d := t.Data()
		rt.sess.SetTimerData(phase, d.ExpectedSeconds, d.ActualSeconds)
		m.writeTimer(w, phase, t)
	}
}

// POST /session/timers/{phase}/reset
func (m *Manager) ResetTimerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		phase, t, ok := m.phaseTimer(w, r, rt)
		if !ok {
			return
		}
		t.Reset()
		m.writeTimer(w, phase, t)
	}
}

// POST /session/steps/next and /session/steps/prev
func (m *Manager) StepHandler(forward bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		if forward {
			rt.sess.NextStep()
		} else {
			rt.sess.PrevStep()
		}
		m.writeView(w, rt)
	}
}

// PUT /session/step
func (m *Manager) GoToStepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		var req struct {
			Step int `json:"step"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		rt.sess.GoToStep(req.Step)
		m.writeView(w, rt)
	}
}

// POST /session/sections/next and /session/sections/prev
func (m *Manager) SectionHandler(forward bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		if forward {
			if err := rt.sess.NextSection(); err != nil {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
		} else {
			rt.sess.PrevSection()
		}
		m.writeView(w, rt)
	}
}

// POST /session/next-candidate
func (m *Manager) NextCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		rt.sess.NextCandidate()
		m.writeView(w, rt)
	}
}

// POST /session/open  { "id": "..." } or { "index": n }
//
// Reopens a saved evaluation for review or correction. Remote rows are
// addressed by id and must belong to the caller unless the caller sees
// all juries; the local-only history is addressed by index.
func (m *Manager) OpenHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		var req struct {
			ID    string `json:"id"`
			Index *int   `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}

		var entry session.EvaluationState
		localIdx := -1
		switch {
		case req.ID != "" && m.deps.Store != nil:
			row, err := m.deps.Store.Get(r.Context(), req.ID)
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
			if row.UserID != id.Sub && !role.CanViewAllJuries() {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			entry = row.State
		case req.Index != nil:
			history := rt.drafts.History()
			if *req.Index < 0 || *req.Index >= len(history) {
				http.Error(w, "history index out of range", http.StatusNotFound)
				return
			}
			entry = history[*req.Index]
			localIdx = *req.Index
		default:
			http.Error(w, "id or index required", http.StatusBadRequest)
			return
		}

		rt.sess.LoadHistoryEntry(entry)
		if localIdx >= 0 {
			// Corrections to a local entry go back into its slot, not
			// onto the end of the history.
			rt.adapter.AdoptLocalIndex(localIdx)
		}
		m.writeView(w, rt)
	}
}

// POST /session/discard
//
// Abandons the opened history entry and restores the in-progress
// evaluation that was active before.
func (m *Manager) DiscardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		rt.sess.Restore()
		m.writeView(w, rt)
	}
}

// POST /session/push
//
// Mirrors the local draft to the remote store so another device can
// resume it.
func (m *Manager) PushDraftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, ok := m.withRuntime(w, r)
		if !ok {
			return
		}
		if err := rt.adapter.PushDraft(r.Context(), rt.sess.State()); err != nil {
			http.Error(w, "push draft: "+err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
