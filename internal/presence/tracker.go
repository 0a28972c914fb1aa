// Package presence holds the in-memory voice presence state and the
// decision logic that turns gateway voice transitions into duration
// accrual and empty-channel notifications.
package presence

import (
	"context"
	"sync"
	"time"
)

// Tracker owns the two ephemeral maps of the presence subsystem: live
// voice sessions keyed by user, and notification gate timestamps keyed
// by rate-limit scope. All methods are safe for concurrent use; a single
// mutex covers both maps since voice transitions are low-frequency.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]time.Time // userID -> session start
	gates    map[string]time.Time // scope key -> last evaluation

	now func() time.Time
}

// NewTracker creates an empty tracker using the wall clock.
func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]time.Time),
		gates:    make(map[string]time.Time),
		now:      time.Now,
	}
}

// SetClock overrides the tracker's time source. Tests use this to make
// session durations and gate verdicts deterministic.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// BeginSession records that the user is now present in a voice channel.
// If a session is already live the call is a no-op: the gateway may
// redeliver join events and duplicates must not reset the clock.
func (t *Tracker) BeginSession(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[userID]; ok {
		return
	}
	t.sessions[userID] = t.now()
}

// EndSession removes the user's live session and returns its elapsed
// duration. The second return is false when no session existed, which
// happens when the process started mid-session; that partial session is
// simply not accrued.
func (t *Tracker) EndSession(userID string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.sessions[userID]
	if !ok {
		return 0, false
	}
	delete(t.sessions, userID)
	d := t.now().Sub(start)
	if d < 0 {
		d = 0
	}
	return d, true
}

// LiveSessions returns the number of currently tracked sessions.
func (t *Tracker) LiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// CheckAndMarkGate reports whether a notification for the scope key is
// suppressed by the debounce window, and unconditionally stamps the key
// with now. The verdict comes from the pre-write timestamp; stamping
// even on suppression collapses a burst of transitions into at most one
// notification instead of one per debounce period.
func (t *Tracker) CheckAndMarkGate(key string, now time.Time, window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.gates[key]
	t.gates[key] = now
	return ok && now.Sub(last) < window
}

// SweepGates drops gate entries older than the retention horizon. A
// user or channel that has not transitioned within the horizon carries
// no suppression information worth keeping.
func (t *Tracker) SweepGates(retention time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-retention)
	removed := 0
	for key, last := range t.gates {
		if last.Before(cutoff) {
			delete(t.gates, key)
			removed++
		}
	}
	return removed
}

// RunGateSweeper periodically evicts stale gate entries until the
// context is canceled. Meant to be started once from main.
func (t *Tracker) RunGateSweeper(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.SweepGates(retention)
		}
	}
}
