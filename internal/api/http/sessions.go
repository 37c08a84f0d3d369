// Package http exposes the jury API over chi: the per-juror session
// endpoints, history and analytics queries, document downloads and the
// admin surface.
package http

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/cache"
	"github.com/CodBad25/oral-dnb/internal/interchange"
	"github.com/CodBad25/oral-dnb/internal/persist"
	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/session"
	"github.com/CodBad25/oral-dnb/internal/store"
)

// Deps is everything the handlers need. Store may be nil; sessions
// then run local-only and completed evaluations stay in the cache.
type Deps struct {
	Grille   *rubric.Grille
	Store    store.Store
	CacheDir string // "" keeps drafts in memory
	Quiet    time.Duration
}

// runtime bundles the per-juror moving parts behind one identity. The
// two phase timers run server-side; pausing one records its elapsed
// time on the evaluation.
type runtime struct {
	sess    *session.Session
	drafts  *cache.Drafts
	adapter *persist.Adapter
	imports *interchange.Set
	timers  map[session.Phase]*session.PhaseTimer
}

// Manager hands out one runtime per authenticated subject. Runtimes
// are created lazily on first request and live for the process.
type Manager struct {
	mu       sync.Mutex
	deps     Deps
	runtimes map[string]*runtime
}

func NewManager(deps Deps) *Manager {
	if deps.Quiet <= 0 {
		deps.Quiet = persist.DefaultQuietPeriod
	}
	return &Manager{deps: deps, runtimes: map[string]*runtime{}}
}

// runtime returns the caller's session bundle, building it on first
// use: the draft cache is opened, the remote draft is consulted when
// the local one is absent, and a fresh state is pre-filled with the
// cached jury defaults.
func (m *Manager) runtime(ctx context.Context, id auth.Identity) (*runtime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.runtimes[id.Sub]; ok {
		return rt, nil
	}

	var kv cache.KV
	if m.deps.CacheDir == "" {
		kv = cache.NewMemStore()
	} else {
		fs, err := cache.NewFileStore(filepath.Join(m.deps.CacheDir, id.Sub))
		if err != nil {
			return nil, err
		}
		kv = fs
	}
	drafts := cache.NewDrafts(kv)
	adapter := persist.New(drafts, m.deps.Store, id.Sub, id.JuryNumber, m.deps.Quiet)

	initial, ok := drafts.LoadCurrent()
	if !ok {
		if remote, found := adapter.PullDraft(ctx); found {
			initial = remote
		} else {
			initial = session.NewState()
			if defaults, ok := drafts.LoadJuryDefaults(); ok {
				initial.Jury = defaults
			}
		}
	}

	rt := &runtime{
		sess:    session.New(m.deps.Grille, adapter, initial),
		drafts:  drafts,
		adapter: adapter,
		imports: interchange.NewSet(drafts),
		timers: map[session.Phase]*session.PhaseTimer{
			session.PhaseExpose:    session.NewPhaseTimer(session.DefaultExposeDuration),
			session.PhaseEntretien: session.NewPhaseTimer(session.DefaultEntretienDuration),
		},
	}
	m.runtimes[id.Sub] = rt
	return rt, nil
}
