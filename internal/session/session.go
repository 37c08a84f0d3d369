package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/score"
)

// ErrSectionIncomplete gates section advancement within the scoring
// step: every criterion of the current section needs a score first.
var ErrSectionIncomplete = errors.New("current section has unscored criteria")

// Persister receives the session's persistence side effects. The local
// draft write happens on every mutation; the remote save is only
// requested when the summary step holds a savable state. Implementations
// must tolerate being called from any goroutine.
type Persister interface {
	SaveDraft(EvaluationState)
	SaveJuryDefaults(JuryInfo)
	// ScheduleRemoteSave (re)arms the debounced create-or-update.
	ScheduleRemoteSave(EvaluationState)
	// FlushRemoteSave issues any pending write immediately and returns
	// the remote id in effect afterwards ("" on failure).
	FlushRemoteSave(EvaluationState) string
	// AdoptRemoteTarget redirects subsequent writes to an existing row.
	AdoptRemoteTarget(id string)
	// DropRemoteTarget forgets the write target so the next save creates
	// a fresh row.
	DropRemoteTarget()
}

// Session owns the one current evaluation of a juror. All methods are
// safe for concurrent use; handlers hit the same session from multiple
// requests.
type Session struct {
	mu      sync.Mutex
	grille  *rubric.Grille
	state   EvaluationState
	section int // current section index within the scoring step

	// snapshot holds the live in-progress state while a history entry
	// is open for view/edit, so it can be restored unchanged.
	snapshot *EvaluationState

	persister Persister
}

// New builds a session around an initial state, typically restored from
// the local draft cache or seeded with jury defaults.
func New(g *rubric.Grille, p Persister, initial EvaluationState) *Session {
	if initial.Scores == nil {
		initial.Scores = score.Map{}
	}
	if initial.CurrentStep < StepJury || initial.CurrentStep > TotalSteps {
		initial.CurrentStep = StepJury
	}
	return &Session{grille: g, state: initial, persister: p}
}

// State returns a copy of the current evaluation.
func (s *Session) State() EvaluationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Grille exposes the rubric the session scores against.
func (s *Session) Grille() *rubric.Grille { return s.grille }

// SetJury updates the evaluator identity and snapshots it as the
// cross-session default.
func (s *Session) SetJury(j JuryInfo) {
	s.mu.Lock()
	s.state.Jury = j
	s.afterMutation()
	s.mu.Unlock()
	s.persister.SaveJuryDefaults(j)
}

// SetCandidate updates the candidate identity.
func (s *Session) SetCandidate(c CandidateInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Candidate = c
	s.afterMutation()
}

// SetScore awards points to a criterion. The criterion must exist in
// the grille and the value must be 0 or one of its level point values.
func (s *Session) SetScore(criterionID string, points float64) error {
	c, ok := s.grille.FindCriterion(criterionID)
	if !ok {
		return fmt.Errorf("unknown criterion %q", criterionID)
	}
	if _, ok := score.LevelForScore(c.Levels, points); !ok {
		return fmt.Errorf("criterion %s: %v is not a level value", criterionID, points)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Scores[criterionID] = points
	s.afterMutation()
	return nil
}

// SetComments replaces the free-text remarks.
func (s *Session) SetComments(comments string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Comments = comments
	s.afterMutation()
}

// SetTimerData records a phase duration.
func (s *Session) SetTimerData(phase Phase, expectedSeconds, actualSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Timers == nil {
		s.state.Timers = &Timers{}
	}
	d := &TimerData{ExpectedSeconds: expectedSeconds, ActualSeconds: actualSeconds}
	if phase == PhaseEntretien {
		s.state.Timers.Entretien = d
	} else {
		s.state.Timers.Expose = d
	}
	s.afterMutation()
}

// NextStep advances one step, clamped to the summary.
func (s *Session) NextStep() { s.GoToStep(s.CurrentStep() + 1) }

// PrevStep goes back one step, clamped to the jury setup.
func (s *Session) PrevStep() { s.GoToStep(s.CurrentStep() - 1) }

// GoToStep jumps to an arbitrary step, clamped to [1,TotalSteps].
// Entering the scoring step always restarts at the first section.
func (s *Session) GoToStep(step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStep(step)
	s.afterMutation()
}

func (s *Session) setStep(step int) {
	if step < StepJury {
		step = StepJury
	}
	if step > TotalSteps {
		step = TotalSteps
	}
	if step == StepScoring && s.state.CurrentStep != StepScoring {
		s.section = 0
	}
	s.state.CurrentStep = step
}

// CurrentStep returns the step the session is on.
func (s *Session) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentStep
}

// SectionIndex returns the active section within the scoring step.
func (s *Session) SectionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.section
}

// NextSection advances within the scoring grid once every criterion of
// the active section is scored. Completing the last section moves the
// session to the summary step.
func (s *Session) NextSection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !score.SectionComplete(s.state.Scores, s.grille.Sections[s.section]) {
		return ErrSectionIncomplete
	}
	if s.section+1 < len(s.grille.Sections) {
		s.section++
		return nil
	}
	s.setStep(StepSummary)
	s.afterMutation()
	return nil
}

// PrevSection steps back within the scoring grid, never below the
// first section.
func (s *Session) PrevSection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.section > 0 {
		s.section--
	}
}

// SectionTotal computes the live subtotal for one section.
func (s *Session) SectionTotal(section rubric.Section) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return score.SectionTotal(s.state.Scores, section)
}

// Total computes the live grand total.
func (s *Session) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return score.GrandTotal(s.state.Scores)
}

// NextCandidate closes out the current candidate: any pending remote
// write is flushed immediately, then candidate data is cleared and the
// flow returns to candidate setup with jury info intact. The write
// target is discarded so the next candidate gets a fresh row.
func (s *Session) NextCandidate() {
	s.mu.Lock()
	st := s.state.Clone()
	s.mu.Unlock()

	if st.Savable() {
		s.persister.FlushRemoteSave(st)
	}
	s.persister.DropRemoteTarget()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Candidate = CandidateInfo{}
	s.state.Scores = score.Map{}
	s.state.Comments = ""
	s.state.Timers = nil
	s.state.RemoteID = ""
	s.state.CurrentStep = StepCandidate
	s.section = 0
	s.persister.SaveDraft(s.state.Clone())
}

// LoadHistoryEntry reopens a persisted evaluation at the scoring grid,
// whatever step it was saved at, and redirects remote writes to its
// row. The live in-progress state is kept aside for Restore.
func (s *Session) LoadHistoryEntry(entry EvaluationState) {
	s.mu.Lock()
	if s.snapshot == nil {
		snap := s.state.Clone()
		s.snapshot = &snap
	}
	st := entry.Clone()
	if st.Scores == nil {
		st.Scores = score.Map{}
	}
	st.CurrentStep = StepScoring
	s.state = st
	s.section = 0
	s.mu.Unlock()

	s.persister.AdoptRemoteTarget(entry.RemoteID)
	s.persister.SaveDraft(s.State())
}

// Restore abandons any edits made while viewing history and brings the
// previously saved in-progress state back. The remote target reverts to
// none, so a later completion of the live candidate creates a new row.
func (s *Session) Restore() {
	s.mu.Lock()
	if s.snapshot != nil {
		s.state = *s.snapshot
		s.snapshot = nil
	}
	s.mu.Unlock()

	s.persister.DropRemoteTarget()
	s.persister.SaveDraft(s.State())
}

// afterMutation persists the draft and, on a savable summary, re-arms
// the remote autosave. Callers hold s.mu.
func (s *Session) afterMutation() {
	st := s.state.Clone()
	s.persister.SaveDraft(st)
	if st.CurrentStep == StepSummary && st.Savable() {
		s.persister.ScheduleRemoteSave(st)
	}
}
