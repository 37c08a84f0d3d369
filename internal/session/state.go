// Package session drives one juror's evaluation flow: the six-step
// state machine, the per-phase countdown timers and the debounced
// remote autosave trigger.
package session

import "github.com/CodBad25/oral-dnb/internal/score"

// Steps of the evaluation flow. Navigation clamps to this range.
const (
	StepJury      = 1
	StepCandidate = 2
	StepExpose    = 3
	StepEntretien = 4
	StepScoring   = 5
	StepSummary   = 6

	TotalSteps = 6
)

// Phase names the two timed parts of the oral.
type Phase string

const (
	PhaseExpose    Phase = "expose"
	PhaseEntretien Phase = "entretien"
)

// JuryInfo identifies the pair of evaluators. JSON field names match
// the interchange files produced by earlier sessions.
type JuryInfo struct {
	Prof1Nom    string `json:"prof1Nom"`
	Prof1Prenom string `json:"prof1Prenom"`
	Prof2Nom    string `json:"prof2Nom"`
	Prof2Prenom string `json:"prof2Prenom"`
	JuryNumber  string `json:"juryNumber"`
	Date        string `json:"date"`
	Salle       string `json:"salle"`
}

// CandidateInfo identifies the candidate being evaluated.
type CandidateInfo struct {
	Nom     string `json:"nom"`
	Prenom  string `json:"prenom"`
	Classe  string `json:"classe"`
	Horaire string `json:"horaire"`
	Sujet   string `json:"sujet"`
}

// TimerData records expected versus actual duration for one phase.
type TimerData struct {
	ExpectedSeconds int `json:"expectedSeconds"`
	ActualSeconds   int `json:"actualSeconds"`
}

// Timers carries the optional per-phase durations.
type Timers struct {
	Expose    *TimerData `json:"expose,omitempty"`
	Entretien *TimerData `json:"entretien,omitempty"`
}

// EvaluationState is one in-progress or completed candidate
// evaluation. RemoteID is the remote store row backing it, empty until
// the first autosave learns one.
type EvaluationState struct {
	CurrentStep int           `json:"currentStep"`
	Jury        JuryInfo      `json:"jury"`
	Candidate   CandidateInfo `json:"candidate"`
	Scores      score.Map     `json:"scores"`
	Comments    string        `json:"comments"`
	Timers      *Timers       `json:"timers,omitempty"`
	RemoteID    string        `json:"-"`
}

// NewState returns an empty evaluation at the jury step.
func NewState() EvaluationState {
	return EvaluationState{CurrentStep: StepJury, Scores: score.Map{}}
}

// Clone deep-copies the state so snapshots cannot alias the live map.
func (s EvaluationState) Clone() EvaluationState {
	out := s
	out.Scores = make(score.Map, len(s.Scores))
	for k, v := range s.Scores {
		out.Scores[k] = v
	}
	if s.Timers != nil {
		t := Timers{}
		if s.Timers.Expose != nil {
			e := *s.Timers.Expose
			t.Expose = &e
		}
		if s.Timers.Entretien != nil {
			e := *s.Timers.Entretien
			t.Entretien = &e
		}
		out.Timers = &t
	}
	return out
}

// Savable reports whether the state qualifies for a remote write: a
// named candidate with at least one scored criterion.
func (s EvaluationState) Savable() bool {
	return s.Candidate.Nom != "" && len(s.Scores) > 0
}
