package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/session"
	"github.com/CodBad25/oral-dnb/internal/store"
)

func testRouter(m *Manager) chi.Router {
	r := chi.NewRouter()
	r.Get("/session", m.GetSessionHandler())
	r.Put("/session/jury", m.SetJuryHandler())
	r.Put("/session/candidate", m.SetCandidateHandler())
	r.Put("/session/scores/{criterionID}", m.SetScoreHandler())
	r.Put("/session/comments", m.SetCommentsHandler())
	r.Put("/session/timers/{phase}", m.SetTimerHandler())
	r.Get("/session/timers/{phase}", m.TimerStatusHandler())
	r.Post("/session/timers/{phase}/start", m.StartTimerHandler())
	r.Post("/session/timers/{phase}/pause", m.PauseTimerHandler())
	r.Post("/session/timers/{phase}/reset", m.ResetTimerHandler())
	r.Put("/session/step", m.GoToStepHandler())
	r.Post("/session/sections/next", m.SectionHandler(true))
	r.Post("/session/next-candidate", m.NextCandidateHandler())
	r.Post("/session/open", m.OpenHistoryHandler())
	r.Post("/session/discard", m.DiscardHandler())
	r.Get("/evaluations", m.ListOwnHandler())
	r.Get("/export/csv", m.ExportCSVHandler())
	r.Post("/import", m.ImportHandler())
	r.Post("/admin/users", m.CreateUserHandler())
	return r
}

func newTestManager(st store.Store) *Manager {
	return NewManager(Deps{Grille: rubric.Default(), Store: st, Quiet: time.Hour})
}

func doJSON(t *testing.T, r chi.Router, id auth.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req = req.WithContext(auth.WithIdentity(context.Background(), id))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) sessionView {
	t.Helper()
	var v sessionView
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v (body %q)", err, w.Body.String())
	}
	return v
}

var juror = auth.Identity{Sub: "u1", Role: "jury", JuryNumber: "1"}

func TestSessionFlowEndToEnd(t *testing.T) {
	st := store.NewMemoryStore()
	r := testRouter(newTestManager(st))

	w := doJSON(t, r, juror, http.MethodPut, "/session/jury", session.JuryInfo{JuryNumber: "1", Prof1Nom: "Martin"})
	if w.Code != http.StatusOK {
		t.Fatalf("set jury: %d %s", w.Code, w.Body)
	}
	doJSON(t, r, juror, http.MethodPut, "/session/candidate", session.CandidateInfo{Nom: "Durand", Prenom: "Luc"})

	g := rubric.Default()
	doJSON(t, r, juror, http.MethodPut, "/session/step", map[string]int{"step": session.StepScoring})
	for si, sec := range g.Sections {
		for _, c := range sec.Criteria {
			w := doJSON(t, r, juror, http.MethodPut, "/session/scores/"+c.ID, map[string]float64{"points": c.Levels[2].Points})
			if w.Code != http.StatusOK {
				t.Fatalf("score %s: %d %s", c.ID, w.Code, w.Body)
			}
		}
		w := doJSON(t, r, juror, http.MethodPost, "/session/sections/next", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("section %d advance: %d %s", si, w.Code, w.Body)
		}
	}

	v := decodeView(t, doJSON(t, r, juror, http.MethodGet, "/session", nil))
	if v.State.CurrentStep != session.StepSummary {
		t.Fatalf("step = %d, want summary", v.State.CurrentStep)
	}
	if v.Total != 15 || v.SectionTotals[1] != 9 || v.SectionTotals[2] != 6 {
		t.Fatalf("totals = %v / %v", v.Total, v.SectionTotals)
	}
	if !v.Savable {
		t.Fatal("finished evaluation not savable")
	}

	// Closing the candidate lands the row in the store.
	doJSON(t, r, juror, http.MethodPost, "/session/next-candidate", nil)
	rows, err := st.ListForOwner(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].State.Candidate.Nom != "Durand" {
		t.Fatalf("rows = %+v", rows)
	}

	v = decodeView(t, doJSON(t, r, juror, http.MethodGet, "/session", nil))
	if v.State.Candidate.Nom != "" || len(v.State.Scores) != 0 {
		t.Fatalf("session not reset: %+v", v.State)
	}
	if v.State.Jury.JuryNumber != "1" {
		t.Fatal("jury info lost on next candidate")
	}
}

func TestSetScoreRejections(t *testing.T) {
	r := testRouter(newTestManager(store.NewMemoryStore()))

	if w := doJSON(t, r, juror, http.MethodPut, "/session/scores/9-9", map[string]float64{"points": 1}); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown criterion: %d", w.Code)
	}
	if w := doJSON(t, r, juror, http.MethodPut, "/session/scores/1-1", map[string]float64{"points": 2.5}); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid points: %d", w.Code)
	}
}

func TestNextSectionIncompleteConflicts(t *testing.T) {
	r := testRouter(newTestManager(store.NewMemoryStore()))
	doJSON(t, r, juror, http.MethodPut, "/session/step", map[string]int{"step": session.StepScoring})
	if w := doJSON(t, r, juror, http.MethodPost, "/session/sections/next", nil); w.Code != http.StatusConflict {
		t.Fatalf("incomplete section advanced: %d", w.Code)
	}
}

func TestOpenHistoryAndDiscard(t *testing.T) {
	st := store.NewMemoryStore()
	r := testRouter(newTestManager(st))

	old := session.NewState()
	old.Candidate.Nom = "Ancien"
	old.Scores["1-1"] = 4
	rowID, err := st.Create(context.Background(), "u1", "1", old)
	if err != nil {
		t.Fatal(err)
	}

	doJSON(t, r, juror, http.MethodPut, "/session/candidate", session.CandidateInfo{Nom: "EnCours"})

	w := doJSON(t, r, juror, http.MethodPost, "/session/open", map[string]string{"id": rowID})
	if w.Code != http.StatusOK {
		t.Fatalf("open: %d %s", w.Code, w.Body)
	}
	v := decodeView(t, w)
	if v.State.Candidate.Nom != "Ancien" || v.State.CurrentStep != session.StepScoring {
		t.Fatalf("opened = %+v", v.State)
	}

	v = decodeView(t, doJSON(t, r, juror, http.MethodPost, "/session/discard", nil))
	if v.State.Candidate.Nom != "EnCours" {
		t.Fatalf("discard restored %q", v.State.Candidate.Nom)
	}

	// Someone else's row stays closed.
	other := auth.Identity{Sub: "u2", Role: "jury", JuryNumber: "2"}
	if w := doJSON(t, r, other, http.MethodPost, "/session/open", map[string]string{"id": rowID}); w.Code != http.StatusForbidden {
		t.Fatalf("foreign open: %d", w.Code)
	}
}

func TestTimerEndpoint(t *testing.T) {
	r := testRouter(newTestManager(store.NewMemoryStore()))

	w := doJSON(t, r, juror, http.MethodPut, "/session/timers/expose", session.TimerData{ExpectedSeconds: 300, ActualSeconds: 287})
	v := decodeView(t, w)
	if v.State.Timers == nil || v.State.Timers.Expose.ActualSeconds != 287 {
		t.Fatalf("timers = %+v", v.State.Timers)
	}
	if w := doJSON(t, r, juror, http.MethodPut, "/session/timers/pause", session.TimerData{}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown phase: %d", w.Code)
	}
}

func TestTimerLifecycle(t *testing.T) {
	r := testRouter(newTestManager(store.NewMemoryStore()))

	decodeTimer := func(w *httptest.ResponseRecorder) timerView {
		t.Helper()
		var tv timerView
		if err := json.NewDecoder(w.Body).Decode(&tv); err != nil {
			t.Fatalf("decode timer: %v (body %q)", err, w.Body.String())
		}
		return tv
	}

	w := doJSON(t, r, juror, http.MethodPost, "/session/timers/expose/start", map[string]int{"expectedSeconds": 300})
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body)
	}
	tv := decodeTimer(w)
	if !tv.Running || tv.Data.ExpectedSeconds != 300 {
		t.Fatalf("started = %+v", tv)
	}

	// Pausing freezes the countdown and records the elapsed time on
	// the evaluation.
	tv = decodeTimer(doJSON(t, r, juror, http.MethodPost, "/session/timers/expose/pause", nil))
	if tv.Running {
		t.Fatal("pause left the timer running")
	}
	v := decodeView(t, doJSON(t, r, juror, http.MethodGet, "/session", nil))
	if v.State.Timers == nil || v.State.Timers.Expose == nil {
		t.Fatalf("pause recorded nothing: %+v", v.State.Timers)
	}
	if v.State.Timers.Expose.ExpectedSeconds != 300 {
		t.Fatalf("expected seconds = %d", v.State.Timers.Expose.ExpectedSeconds)
	}

	tv = decodeTimer(doJSON(t, r, juror, http.MethodPost, "/session/timers/expose/reset", nil))
	if tv.Running || tv.Data.ActualSeconds != 0 {
		t.Fatalf("reset = %+v", tv)
	}

	if w := doJSON(t, r, juror, http.MethodPost, "/session/timers/pause/start", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown phase start: %d", w.Code)
	}
}

func TestCreateUserValidation(t *testing.T) {
	r := testRouter(newTestManager(store.NewMemoryStore()))
	admin := auth.Identity{Sub: "a", Role: "admin"}

	for _, body := range []map[string]string{
		{"password": "pw", "jury_number": "1"},
		{"email": "j@c.fr", "jury_number": "1"},
		{"email": "j@c.fr", "password": "pw"},
	} {
		if w := doJSON(t, r, admin, http.MethodPost, "/admin/users", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %v: %d, want 400", body, w.Code)
		}
	}

	ok := map[string]string{"email": "jury1@college.fr", "password": "pw", "jury_number": "1"}
	w := doJSON(t, r, admin, http.MethodPost, "/admin/users", ok)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}
	var p store.Profile
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Role != store.RoleJury || p.JuryNumber != "1" {
		t.Fatalf("profile = %+v", p)
	}

	if w := doJSON(t, r, admin, http.MethodPost, "/admin/users", ok); w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: %d", w.Code)
	}
}

func TestImportEndpoint(t *testing.T) {
	r := testRouter(newTestManager(store.NewMemoryStore()))

	file := map[string]any{
		"version":    1,
		"exportDate": "2026-06-12T08:00:00Z",
		"jury":       map[string]any{"juryNumber": "5"},
		"candidates": []any{map[string]any{
			"candidate": map[string]any{"nom": "X"},
			"scores":    map[string]any{"1-1": 2},
		}},
	}
	if w := doJSON(t, r, juror, http.MethodPost, "/import", file); w.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", w.Code, w.Body)
	}
	// Same jury twice answers conflict, with the dialog's message.
	w := doJSON(t, r, juror, http.MethodPost, "/import", file)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "jury 5") {
		t.Fatalf("message = %q", w.Body.String())
	}

	file["version"] = 3
	file["jury"] = map[string]any{"juryNumber": "6"}
	w = doJSON(t, r, juror, http.MethodPost, "/import", file)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad version: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Version du fichier") {
		t.Fatalf("message = %q", w.Body.String())
	}
}

func TestExportCSVDownload(t *testing.T) {
	st := store.NewMemoryStore()
	r := testRouter(newTestManager(st))

	full := session.NewState()
	full.Candidate.Nom = "Durand"
	full.Scores["1-1"] = 3
	if _, err := st.Create(context.Background(), "u1", "1", full); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, juror, http.MethodGet, "/export/csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "evaluations_oral_dnb_") || !strings.Contains(cd, ".csv") {
		t.Fatalf("disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "Durand") {
		t.Fatal("exported row missing")
	}
}

func TestMissingIdentityUnauthorized(t *testing.T) {
	r := testRouter(newTestManager(store.NewMemoryStore()))
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request: %d", w.Code)
	}
}

func TestLocalOnlyHistoryListing(t *testing.T) {
	m := newTestManager(nil) // no remote store
	r := testRouter(m)

	doJSON(t, r, juror, http.MethodPut, "/session/candidate", session.CandidateInfo{Nom: "Locale"})
	doJSON(t, r, juror, http.MethodPut, "/session/scores/1-1", map[string]float64{"points": 3})
	doJSON(t, r, juror, http.MethodPost, "/session/next-candidate", nil)

	w := doJSON(t, r, juror, http.MethodGet, "/evaluations", nil)
	var entries []localEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].State.Candidate.Nom != "Locale" {
		t.Fatalf("local history = %+v", entries)
	}
}

func TestLocalHistoryCorrectionUpdatesInPlace(t *testing.T) {
	m := newTestManager(nil) // no remote store
	r := testRouter(m)

	doJSON(t, r, juror, http.MethodPut, "/session/candidate", session.CandidateInfo{Nom: "Durand"})
	doJSON(t, r, juror, http.MethodPut, "/session/scores/1-1", map[string]float64{"points": 2})
	doJSON(t, r, juror, http.MethodPost, "/session/next-candidate", nil)

	// Reopen the saved entry, change the score, close it out again.
	if w := doJSON(t, r, juror, http.MethodPost, "/session/open", map[string]int{"index": 0}); w.Code != http.StatusOK {
		t.Fatalf("open: %d %s", w.Code, w.Body)
	}
	doJSON(t, r, juror, http.MethodPut, "/session/scores/1-1", map[string]float64{"points": 3})
	doJSON(t, r, juror, http.MethodPost, "/session/next-candidate", nil)

	w := doJSON(t, r, juror, http.MethodGet, "/evaluations", nil)
	var entries []localEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("history = %d entries, want the correction in place", len(entries))
	}
	if entries[0].State.Scores["1-1"] != 3 {
		t.Fatalf("stale score survived: %v", entries[0].State.Scores)
	}
}

func TestScoreURLParamRouting(t *testing.T) {
	// Criterion ids ride in the path; make sure chi passes them through.
	r := testRouter(newTestManager(store.NewMemoryStore()))
	for _, id := range []string{"1-1", "2-4"} {
		path := fmt.Sprintf("/session/scores/%s", id)
		if w := doJSON(t, r, juror, http.MethodPut, path, map[string]float64{"points": 0}); w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, w.Code, w.Body)
		}
	}
}
