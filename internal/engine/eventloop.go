package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/jstime-go/jstime/internal/core"
)

// EventLoop drives one Runtime's timers and fetches to quiescence. Adapted
// from the teacher's internal/eventloop.EventLoop (RegisterTimer/ClearTimer/
// Drain/DrainPendingFetches/HasPending), corrected so that timer
// registration goes through IsolateState's transactional in-boxes (drained
// once at the top of each turn) rather than mutating the live timer set
// directly from a binding callback — the teacher's pooled, single-tenant-
// per-turn workers never needed that distinction, but a runtime whose
// bindings can re-enter mid-turn does.
type EventLoop struct {
	rt *Runtime
}

// NewEventLoop returns a loop bound to rt (and, through it, rt.State).
func NewEventLoop(rt *Runtime) *EventLoop {
	return &EventLoop{rt: rt}
}

// Turn runs exactly one iteration of the algorithm: drain the timer
// in-boxes, checkpoint microtasks, poll and settle any completed fetches
// (each settlement followed by its own microtask checkpoint), then fire the
// single earliest-deadline timer that is due, breaking ties by ascending ID.
// Returns true if it did any work (so the caller's outer loop knows whether
// to keep going).
func (el *EventLoop) Turn() (bool, error) {
	state := el.rt.State
	did := false

	timers := state.DrainInboxes()
	el.rt.Ctx.PerformMicrotaskCheckpoint()

	for _, f := range state.PendingFetches() {
		select {
		case res, ok := <-f.ResultCh:
			if !ok {
				continue
			}
			did = true
			state.RemoveFetch(f.ID)
			if err := el.settleFetch(f.ID, res); err != nil {
				return did, err
			}
			el.rt.Ctx.PerformMicrotaskCheckpoint()
		default:
		}
	}

	id, due := earliestDue(timers)
	if due {
		did = true
		t := timers[id]
		if err := el.fireTimer(id); err != nil {
			return did, err
		}
		if t.Interval > 0 {
			state.RescheduleInterval(id)
		} else {
			state.RemoveTimer(id)
		}
		el.rt.Ctx.PerformMicrotaskCheckpoint()
	}

	return did, nil
}

// earliestDue returns the ID of the earliest-deadline timer that is due now
// (ties broken by ascending ID), or ok=false if none is due yet.
func earliestDue(timers map[int]*core.Timer) (id int, ok bool) {
	ids := make([]int, 0, len(timers))
	for i := range timers {
		ids = append(ids, i)
	}
	sort.Ints(ids)

	now := time.Now()
	best := -1
	var bestDeadline time.Time
	for _, i := range ids {
		t := timers[i]
		if t.Cleared || t.Deadline.After(now) {
			continue
		}
		if best == -1 || t.Deadline.Before(bestDeadline) {
			best, bestDeadline = i, t.Deadline
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// NextDeadline returns the nearest future timer deadline, for callers that
// want to sleep instead of busy-polling between turns. DrainInboxes already
// takes the state's lock itself, so this must not wrap it in another one.
func (el *EventLoop) NextDeadline() (time.Time, bool) {
	var best time.Time
	found := false
	for _, t := range el.rt.State.DrainInboxes() {
		if t.Cleared {
			continue
		}
		if !found || t.Deadline.Before(best) {
			best, found = t.Deadline, true
		}
	}
	return best, found
}

func (el *EventLoop) fireTimer(id int) error {
	_, err := el.rt.RunScript(fmt.Sprintf("globalThis.__timerFire(%d)", id), "<timer>")
	return err
}

func (el *EventLoop) settleFetch(id string, res core.FetchResult) error {
	var js string
	if res.Err != nil {
		js = fmt.Sprintf("globalThis.__fetchReject(%q, %q)", id, res.Err.Error())
	} else {
		js = fmt.Sprintf(
			"globalThis.__fetchResolve(%q, %d, %q, %q, %q, %t, %q)",
			id, res.Status, res.StatusText, res.HeadersJSON, encodeBodyB64(res.Body), res.Redirected, res.FinalURL,
		)
	}
	_, err := el.rt.RunScript(js, "<fetch>")
	return err
}

// Drain turns the loop until there is no runnable work left or deadline
// passes. The runtime facade calls it after every script run and module
// import; the module loader's top-level-await pump uses Pump instead.
func (el *EventLoop) Drain(deadline time.Time) error {
	for el.rt.State.HasRunnableWork() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("engine: event loop deadline exceeded")
		}
		did, err := el.Turn()
		if err != nil {
			return err
		}
		if !did {
			// Nothing was ready: wait for the next timer deadline, or briefly
			// for an in-flight fetch when no timer is armed.
			sleep := time.Millisecond
			if next, ok := el.NextDeadline(); ok {
				sleep = time.Until(next)
			}
			if sleep > 0 {
				if sleep > 5*time.Millisecond {
					sleep = 5 * time.Millisecond
				}
				time.Sleep(sleep)
			}
		}
	}
	return nil
}

// Pump runs a single Turn and reports whether the loop still has runnable
// work afterward — the shape the module loader's Import needs to pass as
// its pump callback for driving top-level await.
func (el *EventLoop) Pump() bool {
	el.Turn()
	return el.rt.State.HasRunnableWork()
}
