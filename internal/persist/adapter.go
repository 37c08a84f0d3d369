// Package persist wires a session's side effects to the two
// persistence tiers: the synchronous local cache and the remote store.
// The tiers are independent and never cross-validated; remote failures
// are logged and swallowed because the local draft is always intact.
package persist

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/CodBad25/oral-dnb/internal/cache"
	"github.com/CodBad25/oral-dnb/internal/session"
	"github.com/CodBad25/oral-dnb/internal/store"
)

// DefaultQuietPeriod is the debounce window for the remote autosave.
const DefaultQuietPeriod = time.Second

const remoteTimeout = 10 * time.Second

// Adapter implements session.Persister. With a nil remote store it
// degrades to the local-only tier: completed evaluations land in the
// cached history array instead of the remote table.
type Adapter struct {
	mu       sync.Mutex
	drafts   *cache.Drafts
	remote   store.Store
	ownerID  string
	jury     string
	remoteID string // current write target, "" means create
	localIdx int    // local history slot to update, -1 means append

	deb *session.Debouncer
}

// New builds an adapter for one juror. quiet is the autosave debounce
// window; pass DefaultQuietPeriod outside tests.
func New(drafts *cache.Drafts, remote store.Store, ownerID, juryNumber string, quiet time.Duration) *Adapter {
	return &Adapter{
		drafts:   drafts,
		remote:   remote,
		ownerID:  ownerID,
		jury:     juryNumber,
		localIdx: -1,
		deb:      session.NewDebouncer(quiet),
	}
}

// SaveDraft writes the in-progress state to the local cache.
func (a *Adapter) SaveDraft(st session.EvaluationState) {
	a.drafts.SaveCurrent(st)
}

// SaveJuryDefaults snapshots the jury info for the next session.
func (a *Adapter) SaveJuryDefaults(j session.JuryInfo) {
	a.drafts.SaveJuryDefaults(j)
}

// ScheduleRemoteSave (re)arms the debounced create-or-update. Without a
// remote tier nothing is scheduled; the local history is only written
// on flush so keystrokes cannot duplicate entries.
func (a *Adapter) ScheduleRemoteSave(st session.EvaluationState) {
	if a.remote == nil {
		return
	}
	a.deb.Schedule(func() { a.write(st) })
}

// FlushRemoteSave supersedes any pending debounced write and issues the
// given state immediately. It returns the remote id in effect, "" when
// the write failed or the local tier absorbed it.
func (a *Adapter) FlushRemoteSave(st session.EvaluationState) string {
	a.deb.Cancel()
	return a.write(st)
}

// AdoptRemoteTarget redirects writes to an existing row, dropping any
// write still pending against the previous target.
func (a *Adapter) AdoptRemoteTarget(id string) {
	a.deb.Cancel()
	a.mu.Lock()
	a.remoteID = id
	a.localIdx = -1
	a.mu.Unlock()
}

// AdoptLocalIndex is the local-only counterpart of AdoptRemoteTarget:
// the next flush updates the given history slot instead of appending.
func (a *Adapter) AdoptLocalIndex(i int) {
	a.deb.Cancel()
	a.mu.Lock()
	a.remoteID = ""
	a.localIdx = i
	a.mu.Unlock()
}

// DropRemoteTarget forgets the write target; the next save creates a
// fresh row.
func (a *Adapter) DropRemoteTarget() {
	a.deb.Cancel()
	a.mu.Lock()
	a.remoteID = ""
	a.localIdx = -1
	a.mu.Unlock()
}

// RemoteID returns the current write target.
func (a *Adapter) RemoteID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remoteID
}

// PushDraft mirrors the local draft to the remote current_evaluations
// row for cross-device resume.
func (a *Adapter) PushDraft(ctx context.Context, st session.EvaluationState) error {
	if a.remote == nil {
		return nil
	}
	return a.remote.SaveDraft(ctx, a.ownerID, st)
}

// PullDraft fetches the remote draft, if any.
func (a *Adapter) PullDraft(ctx context.Context) (session.EvaluationState, bool) {
	if a.remote == nil {
		return session.EvaluationState{}, false
	}
	st, err := a.remote.LoadDraft(ctx, a.ownerID)
	if err != nil {
		if err != store.ErrNotFound {
			log.Printf("persist: load remote draft: %v", err)
		}
		return session.EvaluationState{}, false
	}
	return st, true
}

func (a *Adapter) write(st session.EvaluationState) string {
	if a.remote == nil {
		a.mu.Lock()
		idx := a.localIdx
		a.localIdx = -1
		a.mu.Unlock()
		if idx >= 0 {
			a.drafts.ReplaceHistory(idx, st)
		} else {
			a.drafts.AppendHistory(st)
		}
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	jury := a.jury
	if jury == "" {
		jury = st.Jury.JuryNumber
	}

	a.mu.Lock()
	target := a.remoteID
	a.mu.Unlock()

	if target != "" {
		// Updates are last-write-wins on the row id.
		if err := a.remote.Update(ctx, target, st); err != nil {
			log.Printf("persist: update evaluation %s: %v", target, err)
			return ""
		}
		return target
	}

	id, err := a.remote.Create(ctx, a.ownerID, jury, st)
	if err != nil {
		log.Printf("persist: create evaluation: %v", err)
		return ""
	}
	a.mu.Lock()
	// First write learns the identifier; keep it unless the target
	// changed while the request was in flight.
	if a.remoteID == "" {
		a.remoteID = id
	}
	a.mu.Unlock()
	return id
}
