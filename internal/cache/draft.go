package cache

import (
	"encoding/json"
	"log"

	"github.com/CodBad25/oral-dnb/internal/session"
)

// Drafts wraps a KV with the typed read/write contract of the four
// cached collections. Malformed JSON is logged and treated as absent.
type Drafts struct{ kv KV }

// NewDrafts wraps the given store.
func NewDrafts(kv KV) *Drafts { return &Drafts{kv: kv} }

// SaveCurrent stores the in-progress evaluation for reload continuity.
func (d *Drafts) SaveCurrent(state session.EvaluationState) {
	d.put(KeyCurrent, state)
}

// LoadCurrent returns the cached in-progress evaluation, or false when
// none is usable.
func (d *Drafts) LoadCurrent() (session.EvaluationState, bool) {
	var st session.EvaluationState
	if !d.get(KeyCurrent, &st) {
		return session.EvaluationState{}, false
	}
	return st, true
}

// ClearCurrent drops the cached draft.
func (d *Drafts) ClearCurrent() {
	if err := d.kv.Delete(KeyCurrent); err != nil {
		log.Printf("cache: clear %s: %v", KeyCurrent, err)
	}
}

// SaveJuryDefaults snapshots the last-used jury info for pre-filling
// the next session.
func (d *Drafts) SaveJuryDefaults(j session.JuryInfo) {
	d.put(KeyJuryDefaults, j)
}

// LoadJuryDefaults returns the last-used jury info, or false.
func (d *Drafts) LoadJuryDefaults() (session.JuryInfo, bool) {
	var j session.JuryInfo
	if !d.get(KeyJuryDefaults, &j) {
		return session.JuryInfo{}, false
	}
	return j, true
}

// SaveHistory replaces the local-only evaluation history.
func (d *Drafts) SaveHistory(entries []session.EvaluationState) {
	d.put(KeyHistory, entries)
}

// History returns the local-only evaluation history, empty when absent
// or corrupt.
func (d *Drafts) History() []session.EvaluationState {
	var entries []session.EvaluationState
	if !d.get(KeyHistory, &entries) {
		return nil
	}
	return entries
}

// AppendHistory adds one completed evaluation to the local history.
func (d *Drafts) AppendHistory(state session.EvaluationState) {
	d.put(KeyHistory, append(d.History(), state))
}

// ReplaceHistory overwrites one history slot in place. Out-of-range
// indexes are ignored; the history may have been cleared elsewhere.
func (d *Drafts) ReplaceHistory(i int, state session.EvaluationState) {
	entries := d.History()
	if i < 0 || i >= len(entries) {
		return
	}
	entries[i] = state
	d.put(KeyHistory, entries)
}

// SaveRaw and LoadRaw expose the untyped tier for collections owned by
// other packages (imported juries).
func (d *Drafts) SaveRaw(key string, v any)      { d.put(key, v) }
func (d *Drafts) LoadRaw(key string, v any) bool { return d.get(key, v) }

func (d *Drafts) put(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: marshal %s: %v", key, err)
		return
	}
	if err := d.kv.Set(key, string(data)); err != nil {
		log.Printf("cache: save %s: %v", key, err)
	}
}

func (d *Drafts) get(key string, v any) bool {
	raw, err := d.kv.Get(key)
	if err != nil {
		if err != ErrNotFound {
			log.Printf("cache: load %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Printf("cache: corrupt %s, ignoring: %v", key, err)
		return false
	}
	return true
}
