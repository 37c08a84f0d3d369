package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodBad25/oral-dnb/internal/session"
)

// MemoryStore is the in-memory Store used by tests and by offline runs
// without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	order    map[string]int64 // insertion order, CreatedAt alone is too coarse
	drafts   map[string]session.EvaluationState
	profiles map[string]Profile // by id
	seq      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  map[string]Entry{},
		order:    map[string]int64{},
		drafts:   map[string]session.EvaluationState{},
		profiles: map[string]Profile{},
	}
}

func (m *MemoryStore) Create(_ context.Context, ownerID, juryNumber string, state session.EvaluationState) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.seq++
	st := state.Clone()
	st.CurrentStep = session.StepSummary
	st.RemoteID = id
	now := time.Now().Unix()
	m.entries[id] = Entry{
		ID: id, UserID: ownerID, JuryNumber: juryNumber,
		State: st, CreatedAt: now, UpdatedAt: now,
	}
	m.order[id] = m.seq
	return id, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, state session.EvaluationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	st := state.Clone()
	st.CurrentStep = session.StepSummary
	st.RemoteID = id
	e.State = st
	e.UpdatedAt = time.Now().Unix()
	m.entries[id] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) collect(filter func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range m.entries {
		if filter(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out
}

func (m *MemoryStore) ListForOwner(_ context.Context, ownerID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(e Entry) bool { return e.UserID == ownerID }), nil
}

func (m *MemoryStore) ListAll(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(Entry) bool { return true }), nil
}

func (m *MemoryStore) ListByJury(_ context.Context, juryNumber string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(e Entry) bool { return e.JuryNumber == juryNumber }), nil
}

func (m *MemoryStore) JuryNumbers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range m.entries {
		if !seen[e.JuryNumber] {
			seen[e.JuryNumber] = true
			out = append(out, e.JuryNumber)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) SaveDraft(_ context.Context, userID string, state session.EvaluationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[userID] = state.Clone()
	return nil
}

func (m *MemoryStore) LoadDraft(_ context.Context, userID string) (session.EvaluationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.drafts[userID]
	if !ok {
		return session.EvaluationState{}, ErrNotFound
	}
	return st.Clone(), nil
}

func (m *MemoryStore) ClearDraft(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	return nil
}

func (m *MemoryStore) CreateProfile(_ context.Context, p Profile) error {
	if p.Email == "" || p.PasswordHash == "" {
		return ErrMissingFields
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if existing.Email == p.Email {
			return ErrEmailTaken
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *MemoryStore) ProfileByEmail(_ context.Context, email string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (m *MemoryStore) ProfileByID(_ context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListProfiles(_ context.Context) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Profile
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}
