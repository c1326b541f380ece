package engine

import (
	"testing"
	"time"

	"github.com/jstime-go/jstime/internal/core"
)

func TestEarliestDue_TieBreaksByAscendingID(t *testing.T) {
	now := time.Now().Add(-time.Millisecond)
	timers := map[int]*core.Timer{
		3: {ID: 3, Deadline: now},
		1: {ID: 1, Deadline: now},
		2: {ID: 2, Deadline: now},
	}
	id, ok := earliestDue(timers)
	if !ok {
		t.Fatal("expected a due timer")
	}
	if id != 1 {
		t.Errorf("earliestDue tie-break = %d, want 1 (ascending id)", id)
	}
}

func TestEarliestDue_EarlierDeadlineWinsOverID(t *testing.T) {
	now := time.Now()
	timers := map[int]*core.Timer{
		5: {ID: 5, Deadline: now.Add(-10 * time.Millisecond)},
		1: {ID: 1, Deadline: now.Add(-1 * time.Millisecond)},
	}
	id, ok := earliestDue(timers)
	if !ok {
		t.Fatal("expected a due timer")
	}
	if id != 5 {
		t.Errorf("earliestDue = %d, want 5 (earlier deadline)", id)
	}
}

func TestEarliestDue_NoneDue(t *testing.T) {
	timers := map[int]*core.Timer{
		1: {ID: 1, Deadline: time.Now().Add(time.Hour)},
	}
	if _, ok := earliestDue(timers); ok {
		t.Fatal("expected no timer due yet")
	}
}

func TestEarliestDue_ClearedTimerSkipped(t *testing.T) {
	timers := map[int]*core.Timer{
		1: {ID: 1, Deadline: time.Now().Add(-time.Millisecond), Cleared: true},
		2: {ID: 2, Deadline: time.Now().Add(-time.Millisecond)},
	}
	id, ok := earliestDue(timers)
	if !ok || id != 2 {
		t.Fatalf("earliestDue = (%d, %v), want (2, true)", id, ok)
	}
}

// TestNextDeadline_DoesNotDeadlock guards against NextDeadline wrapping
// DrainInboxes (which takes IsolateState's lock itself) in another Lock call
// on the same non-reentrant mutex. A timer queued with a future deadline
// puts Drain's "no work done this turn" branch on this exact path, so
// setTimeout/setInterval usage in general would hang forever if this
// regressed.
func TestNextDeadline_DoesNotDeadlock(t *testing.T) {
	state := core.NewIsolateState(nil)
	rt := &Runtime{State: state}
	el := NewEventLoop(rt)

	state.QueueTimer(time.Hour, false)

	done := make(chan struct{})
	go func() {
		el.NextDeadline()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NextDeadline deadlocked")
	}
}
