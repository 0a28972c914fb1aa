package presence

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source shared by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestBeginEndSession(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker()
	tr.SetClock(clk.Now)

	tr.BeginSession("alice")
	clk.Advance(40 * time.Second)

	d, ok := tr.EndSession("alice")
	if !ok {
		t.Fatal("expected live session for alice")
	}
	if d != 40*time.Second {
		t.Fatalf("elapsed = %v, want 40s", d)
	}
	if _, ok := tr.EndSession("alice"); ok {
		t.Fatal("second EndSession should find nothing")
	}
}

func TestBeginSessionIdempotent(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker()
	tr.SetClock(clk.Now)

	tr.BeginSession("alice")
	clk.Advance(30 * time.Second)
	tr.BeginSession("alice") // duplicate join must not reset the clock
	clk.Advance(10 * time.Second)

	if n := tr.LiveSessions(); n != 1 {
		t.Fatalf("live sessions = %d, want 1", n)
	}
	d, ok := tr.EndSession("alice")
	if !ok || d != 40*time.Second {
		t.Fatalf("elapsed = %v ok=%v, want 40s from original join", d, ok)
	}
}

func TestEndSessionWithoutJoin(t *testing.T) {
	tr := NewTracker()
	if d, ok := tr.EndSession("ghost"); ok || d != 0 {
		t.Fatalf("EndSession on missing session = (%v, %v), want (0, false)", d, ok)
	}
}

func TestCheckAndMarkGate(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker()
	tr.SetClock(clk.Now)
	window := 30 * time.Second

	if tr.CheckAndMarkGate("channel:g:c", clk.Now(), window) {
		t.Fatal("first evaluation must not be suppressed")
	}
	clk.Advance(5 * time.Second)
	if !tr.CheckAndMarkGate("channel:g:c", clk.Now(), window) {
		t.Fatal("evaluation 5s later must be suppressed")
	}
	// The suppressed call still stamped the gate, so a burst keeps
	// pushing the window forward.
	clk.Advance(29 * time.Second)
	if !tr.CheckAndMarkGate("channel:g:c", clk.Now(), window) {
		t.Fatal("29s after the re-stamp must still be suppressed")
	}
	clk.Advance(31 * time.Second)
	if tr.CheckAndMarkGate("channel:g:c", clk.Now(), window) {
		t.Fatal("31s after the last stamp must pass")
	}
}

func TestGateScopesIndependent(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker()
	tr.SetClock(clk.Now)
	window := 30 * time.Second

	if tr.CheckAndMarkGate("user:alice", clk.Now(), window) {
		t.Fatal("alice's gate should start open")
	}
	if tr.CheckAndMarkGate("user:bob", clk.Now(), window) {
		t.Fatal("bob's gate is independent of alice's")
	}
}

func TestSweepGates(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker()
	tr.SetClock(clk.Now)

	tr.CheckAndMarkGate("user:old", clk.Now(), time.Second)
	clk.Advance(15 * time.Minute)
	tr.CheckAndMarkGate("user:fresh", clk.Now(), time.Second)

	if removed := tr.SweepGates(10 * time.Minute); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	// The fresh entry must still suppress.
	if !tr.CheckAndMarkGate("user:fresh", clk.Now(), time.Second) {
		t.Fatal("fresh gate entry should have survived the sweep")
	}
}

func TestConcurrentSameUser(t *testing.T) {
	clk := newFakeClock()
	tr := NewTracker()
	tr.SetClock(clk.Now)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.BeginSession("alice")
		}()
	}
	wg.Wait()
	if n := tr.LiveSessions(); n != 1 {
		t.Fatalf("live sessions = %d, want 1", n)
	}

	clk.Advance(10 * time.Second)

	var ended int32
	var mu sync.Mutex
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tr.EndSession("alice"); ok {
				mu.Lock()
				ended++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ended != 1 {
		t.Fatalf("EndSession succeeded %d times, want exactly 1", ended)
	}
}
