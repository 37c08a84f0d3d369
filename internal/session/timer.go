package session

import (
	"fmt"
	"sync"
	"time"
)

// alertWindow is how close to zero the countdown gets before the timer
// reports an alert state.
const alertWindow = 30 * time.Second

// Default phase durations for an individual passage.
const (
	DefaultExposeDuration    = 5 * time.Minute
	DefaultEntretienDuration = 10 * time.Minute
)

// PhaseTimer is the countdown/overtime stopwatch for one oral phase.
// It keeps running past zero; Remaining goes negative and Overtime
// flips, matching the on-screen behavior. The clock is injectable for
// tests.
type PhaseTimer struct {
	mu        sync.Mutex
	now       func() time.Time
	initial   time.Duration
	accrued   time.Duration // elapsed across previous run segments
	startedAt time.Time
	running   bool
}

// NewPhaseTimer builds a timer with the given expected duration.
func NewPhaseTimer(expected time.Duration) *PhaseTimer {
	return &PhaseTimer{now: time.Now, initial: expected}
}

func (t *PhaseTimer) withClock(now func() time.Time) *PhaseTimer {
	t.now = now
	return t
}

// Start begins or resumes the countdown.
func (t *PhaseTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.startedAt = t.now()
	t.running = true
}

// Pause freezes the countdown, keeping the elapsed time.
func (t *PhaseTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.accrued += t.now().Sub(t.startedAt)
	t.running = false
}

// Reset stops the timer and clears the elapsed time.
func (t *PhaseTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.accrued = 0
}

// SetDuration stops the timer and replaces the expected duration.
func (t *PhaseTimer) SetDuration(expected time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.accrued = 0
	t.initial = expected
}

// Elapsed returns the total time the timer has been running.
func (t *PhaseTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *PhaseTimer) elapsedLocked() time.Duration {
	e := t.accrued
	if t.running {
		e += t.now().Sub(t.startedAt)
	}
	return e
}

// Remaining returns the time left; negative once in overtime.
func (t *PhaseTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initial - t.elapsedLocked()
}

// Overtime reports whether the countdown has passed zero.
func (t *PhaseTimer) Overtime() bool { return t.Remaining() < 0 }

// Alert reports whether the countdown is within the alert window but
// not yet expired.
func (t *PhaseTimer) Alert() bool {
	r := t.Remaining()
	return r > 0 && r <= alertWindow
}

// Running reports whether the timer is counting.
func (t *PhaseTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Clock renders the remaining time as MM:SS, with a leading minus sign
// in overtime.
func (t *PhaseTimer) Clock() string {
	r := t.Remaining()
	sign := ""
	if r < 0 {
		sign = "-"
		r = -r
	}
	secs := int(r.Round(time.Second).Seconds())
	return fmt.Sprintf("%s%02d:%02d", sign, secs/60, secs%60)
}

// Data captures the expected/actual durations for the evaluation state.
func (t *PhaseTimer) Data() TimerData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerData{
		ExpectedSeconds: int(t.initial.Seconds()),
		ActualSeconds:   int(t.elapsedLocked().Seconds()),
	}
}
