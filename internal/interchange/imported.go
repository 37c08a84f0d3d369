package interchange

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodBad25/oral-dnb/internal/analytics"
	"github.com/CodBad25/oral-dnb/internal/cache"
	"github.com/CodBad25/oral-dnb/internal/session"
)

// ImportedJury is one imported payload kept locally for comparison.
// Imported data never reaches the remote store by itself.
type ImportedJury struct {
	ID         string  `json:"id"`
	ImportDate string  `json:"importDate"`
	Payload    Payload `json:"payload"`
}

// Set is the locally cached collection of imported juries. Every
// mutation is written back to the cache.
type Set struct {
	mu     sync.Mutex
	drafts *cache.Drafts
	juries []ImportedJury
}

// NewSet loads the collection from the cache; corrupt or missing data
// starts empty.
func NewSet(drafts *cache.Drafts) *Set {
	s := &Set{drafts: drafts}
	s.drafts.LoadRaw(cache.KeyImportedJuries, &s.juries)
	return s
}

// Add validates the duplicate-jury rule and stores the payload. On
// rejection the collection is untouched.
func (s *Set) Add(p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.juries {
		if j.Payload.Jury.JuryNumber == p.Jury.JuryNumber {
			return &DuplicateJuryError{JuryNumber: p.Jury.JuryNumber}
		}
	}
	s.juries = append(s.juries, ImportedJury{
		ID:         uuid.NewString(),
		ImportDate: time.Now().UTC().Format(time.RFC3339),
		Payload:    p,
	})
	s.drafts.SaveRaw(cache.KeyImportedJuries, s.juries)
	return nil
}

// Remove drops one imported jury by id.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.juries[:0]
	for _, j := range s.juries {
		if j.ID != id {
			kept = append(kept, j)
		}
	}
	s.juries = kept
	s.drafts.SaveRaw(cache.KeyImportedJuries, s.juries)
}

// Juries returns a copy of the collection.
func (s *Set) Juries() []ImportedJury {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ImportedJury, len(s.juries))
	copy(out, s.juries)
	return out
}

// Len reports how many juries are imported.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.juries)
}

// Tagged merges the local history with every imported jury into the
// flat collection the analytics functions consume. localJury tags
// history entries that carry no jury number of their own.
func (s *Set) Tagged(history []session.EvaluationState, localJury string) []analytics.Tagged {
	if localJury == "" {
		localJury = "Local"
	}
	var out []analytics.Tagged
	for _, entry := range history {
		jn := entry.Jury.JuryNumber
		if jn == "" {
			jn = localJury
		}
		out = append(out, analytics.Tagged{State: entry, JuryNumber: jn})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, imported := range s.juries {
		jn := imported.Payload.Jury.JuryNumber
		for _, cand := range imported.Payload.Candidates {
			out = append(out, analytics.Tagged{State: cand, JuryNumber: jn})
		}
	}
	return out
}
