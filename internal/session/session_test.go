package session

import (
	"sync"
	"testing"

	"github.com/CodBad25/oral-dnb/internal/rubric"
)

// fakePersister records the side effects a session emits.
type fakePersister struct {
	mu          sync.Mutex
	drafts      []EvaluationState
	defaults    []JuryInfo
	scheduled   []EvaluationState
	flushed     []EvaluationState
	adopted     []string
	dropped     int
	flushReturn string
}

func (f *fakePersister) SaveDraft(st EvaluationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, st)
}

func (f *fakePersister) SaveJuryDefaults(j JuryInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults = append(f.defaults, j)
}

func (f *fakePersister) ScheduleRemoteSave(st EvaluationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, st)
}

func (f *fakePersister) FlushRemoteSave(st EvaluationState) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = append(f.flushed, st)
	return f.flushReturn
}

func (f *fakePersister) AdoptRemoteTarget(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adopted = append(f.adopted, id)
}

func (f *fakePersister) DropRemoteTarget() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped++
}

func newTestSession(t *testing.T) (*Session, *fakePersister) {
	t.Helper()
	p := &fakePersister{}
	return New(rubric.Default(), p, NewState()), p
}

func scoreSection(t *testing.T, s *Session, section rubric.Section) {
	t.Helper()
	for _, c := range section.Criteria {
		if err := s.SetScore(c.ID, c.Levels[2].Points); err != nil {
			t.Fatalf("score %s: %v", c.ID, err)
		}
	}
}

func TestStepNavigationClamps(t *testing.T) {
	s, _ := newTestSession(t)

	s.PrevStep()
	if got := s.CurrentStep(); got != StepJury {
		t.Fatalf("step below minimum: %d", got)
	}
	for i := 0; i < 10; i++ {
		s.NextStep()
	}
	if got := s.CurrentStep(); got != StepSummary {
		t.Fatalf("step above maximum: %d", got)
	}
	s.GoToStep(42)
	if got := s.CurrentStep(); got != StepSummary {
		t.Fatalf("GoToStep unclamped: %d", got)
	}
	s.GoToStep(-1)
	if got := s.CurrentStep(); got != StepJury {
		t.Fatalf("GoToStep unclamped below: %d", got)
	}
}

func TestEnteringScoringResetsSection(t *testing.T) {
	s, _ := newTestSession(t)
	s.GoToStep(StepScoring)
	scoreSection(t, s, s.Grille().Sections[0])
	if err := s.NextSection(); err != nil {
		t.Fatalf("next section: %v", err)
	}
	if got := s.SectionIndex(); got != 1 {
		t.Fatalf("section = %d, want 1", got)
	}

	s.GoToStep(StepSummary)
	s.GoToStep(StepScoring)
	if got := s.SectionIndex(); got != 0 {
		t.Fatalf("re-entering scoring kept section %d", got)
	}
}

func TestNextSectionGatedOnCompleteness(t *testing.T) {
	s, _ := newTestSession(t)
	s.GoToStep(StepScoring)

	if err := s.NextSection(); err != ErrSectionIncomplete {
		t.Fatalf("unscored section advanced: %v", err)
	}

	g := s.Grille()
	scoreSection(t, s, g.Sections[0])
	if err := s.NextSection(); err != nil {
		t.Fatalf("complete section refused: %v", err)
	}

	// Completing the last section lands on the summary.
	scoreSection(t, s, g.Sections[1])
	if err := s.NextSection(); err != nil {
		t.Fatalf("last section: %v", err)
	}
	if got := s.CurrentStep(); got != StepSummary {
		t.Fatalf("after last section step = %d, want summary", got)
	}
}

func TestSetScoreRejectsBadInput(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.SetScore("9-9", 1); err == nil {
		t.Error("unknown criterion accepted")
	}
	if err := s.SetScore("1-1", 2.5); err == nil {
		t.Error("non-level value accepted")
	}
	if err := s.SetScore("1-1", 0); err != nil {
		t.Errorf("zero rejected: %v", err)
	}
}

func TestAutosaveOnlyOnSavableSummary(t *testing.T) {
	s, p := newTestSession(t)

	s.SetCandidate(CandidateInfo{Nom: "Durand", Prenom: "Luc"})
	if err := s.SetScore("1-1", 3); err != nil {
		t.Fatal(err)
	}
	if len(p.scheduled) != 0 {
		t.Fatalf("remote save scheduled before summary: %d", len(p.scheduled))
	}

	s.GoToStep(StepSummary)
	if len(p.scheduled) != 1 {
		t.Fatalf("savable summary scheduled %d saves, want 1", len(p.scheduled))
	}
	s.SetComments("bon exposé")
	if len(p.scheduled) != 2 {
		t.Fatalf("summary mutation did not re-arm: %d", len(p.scheduled))
	}
}

func TestDraftSavedOnEveryMutation(t *testing.T) {
	s, p := newTestSession(t)
	s.SetCandidate(CandidateInfo{Nom: "Durand"})
	s.SetComments("x")
	s.NextStep()
	if len(p.drafts) != 3 {
		t.Fatalf("drafts = %d, want 3", len(p.drafts))
	}
}

func TestSetJurySavesDefaults(t *testing.T) {
	s, p := newTestSession(t)
	j := JuryInfo{JuryNumber: "3", Prof1Nom: "Martin"}
	s.SetJury(j)
	if len(p.defaults) != 1 || p.defaults[0].JuryNumber != "3" {
		t.Fatalf("jury defaults not saved: %+v", p.defaults)
	}
}

func TestNextCandidateFlushesAndResets(t *testing.T) {
	s, p := newTestSession(t)
	jury := JuryInfo{JuryNumber: "2"}
	s.SetJury(jury)
	s.SetCandidate(CandidateInfo{Nom: "Petit", Prenom: "Emma"})
	if err := s.SetScore("1-1", 4); err != nil {
		t.Fatal(err)
	}
	s.SetTimerData(PhaseExpose, 300, 290)
	s.GoToStep(StepSummary)

	s.NextCandidate()

	if len(p.flushed) != 1 {
		t.Fatalf("flushes = %d, want 1", len(p.flushed))
	}
	if p.flushed[0].Candidate.Nom != "Petit" {
		t.Errorf("flushed wrong candidate: %+v", p.flushed[0].Candidate)
	}
	if p.dropped == 0 {
		t.Error("remote target not dropped")
	}

	st := s.State()
	if st.Candidate != (CandidateInfo{}) || len(st.Scores) != 0 || st.Comments != "" || st.Timers != nil {
		t.Errorf("candidate data not cleared: %+v", st)
	}
	if st.Jury != jury {
		t.Errorf("jury info lost: %+v", st.Jury)
	}
	if st.CurrentStep != StepCandidate {
		t.Errorf("step = %d, want candidate setup", st.CurrentStep)
	}
}

func TestNextCandidateSkipsFlushWhenNotSavable(t *testing.T) {
	s, p := newTestSession(t)
	s.SetCandidate(CandidateInfo{Nom: "Sans Scores"})
	s.NextCandidate()
	if len(p.flushed) != 0 {
		t.Fatalf("unsavable state flushed: %d", len(p.flushed))
	}
}

func TestLoadHistoryEntryAndRestore(t *testing.T) {
	s, p := newTestSession(t)
	s.SetCandidate(CandidateInfo{Nom: "EnCours"})
	if err := s.SetScore("1-1", 2); err != nil {
		t.Fatal(err)
	}

	entry := NewState()
	entry.Candidate = CandidateInfo{Nom: "Ancien"}
	entry.Scores = map[string]float64{"1-1": 4}
	entry.CurrentStep = StepSummary
	entry.RemoteID = "row-7"

	s.LoadHistoryEntry(entry)

	if got := s.State().Candidate.Nom; got != "Ancien" {
		t.Fatalf("loaded candidate = %q", got)
	}
	if got := s.CurrentStep(); got != StepScoring {
		t.Fatalf("history opens at step %d, want scoring", got)
	}
	if len(p.adopted) != 1 || p.adopted[0] != "row-7" {
		t.Fatalf("remote target not adopted: %v", p.adopted)
	}

	// Edits to the reopened entry do not leak into the restored state.
	if err := s.SetScore("1-2", 1); err != nil {
		t.Fatal(err)
	}
	s.Restore()

	st := s.State()
	if st.Candidate.Nom != "EnCours" {
		t.Fatalf("restored candidate = %q", st.Candidate.Nom)
	}
	if st.Scores["1-1"] != 2 {
		t.Fatalf("restored scores = %v", st.Scores)
	}
	if _, ok := st.Scores["1-2"]; ok {
		t.Fatal("history edit leaked into restored state")
	}
	if p.dropped == 0 {
		t.Fatal("remote target kept after restore")
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := NewState()
	st.Scores["1-1"] = 3
	st.Timers = &Timers{Expose: &TimerData{ExpectedSeconds: 300, ActualSeconds: 250}}

	c := st.Clone()
	c.Scores["1-1"] = 1
	c.Timers.Expose.ActualSeconds = 0

	if st.Scores["1-1"] != 3 {
		t.Error("score map aliased")
	}
	if st.Timers.Expose.ActualSeconds != 250 {
		t.Error("timer data aliased")
	}
}
