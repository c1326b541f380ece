package core

import (
	"sync"
	"time"
)

// Timer is a single setTimeout/setInterval registration. Timers are identified
// by an ascending integer ID assigned at registration time; the event loop
// uses ID order to break ties between timers with identical deadlines.
type Timer struct {
	ID       int
	Deadline time.Time
	Interval time.Duration // zero for setTimeout, >0 for setInterval
	Cleared  bool
}

// FetchRequest tracks one in-flight fetch() call. ResultCh receives exactly
// one FetchResult before being closed by the goroutine performing the
// request; the event loop polls it non-blockingly once per turn.
type FetchRequest struct {
	ID       string
	ResultCh <-chan FetchResult
	Cancel   func()
}

// FetchResult is the outcome of a FetchRequest, handed back across the
// channel boundary so the event loop can resolve or reject the JS-side
// promise without blocking on network I/O inside a V8 callback.
type FetchResult struct {
	Status      int
	StatusText  string
	HeadersJSON string
	Body        []byte
	Redirected  bool
	FinalURL    string
	Err         error
}

// IsolateState is the single record reachable from every native binding
// callback for a given isolate. It holds the module map's companion pending
// work queues; the module map itself lives in internal/engine because it
// must reference *v8go.Module values, which this package does not import so
// that it stays usable by code (like the event loop's pure timer logic) that
// has no business touching V8 types directly.
//
// Mutation goes through Lock/Unlock with a deliberately short borrow window:
// no caller may hold the lock while re-entering V8 (evaluating JS, calling a
// function, running a microtask checkpoint), mirroring the RefCell borrow
// discipline the original Rust isolate_state.rs relies on the borrow checker
// to enforce at compile time.
type IsolateState struct {
	mu sync.Mutex

	// timersToAdd and timersToClear are transactional in-boxes: a binding
	// callback invoked from inside a running turn appends here rather than
	// mutating ActiveTimers directly, so that a turn's own iteration over
	// ActiveTimers never observes a registration racing in mid-turn.
	timersToAdd   []*Timer
	timersToClear []int
	activeTimers  map[int]*Timer
	nextTimerID   int

	pendingFetches map[string]*FetchRequest

	// ProcessArgv holds argv[1:] as seen by the `process` builtin.
	ProcessArgv []string

	// stringCache interns JS string literals used repeatedly by native
	// bindings (property names like "stack", "message", "url") so bindings
	// avoid re-allocating them on every call. Keyed by the literal value;
	// values are opaque to this package (held as any, so a caller can store
	// a *v8go.Value without core importing v8go).
	stringCache map[string]any
}

// NewIsolateState returns a freshly initialized state record for one isolate.
func NewIsolateState(argv []string) *IsolateState {
	return &IsolateState{
		activeTimers:   make(map[int]*Timer),
		pendingFetches: make(map[string]*FetchRequest),
		stringCache:    make(map[string]any),
		ProcessArgv:    argv,
	}
}

// Lock/Unlock expose the short-borrow-window mutex directly to callers that
// need to read or mutate several fields atomically (e.g. the event loop
// turn). Prefer the narrower helper methods below where they suffice.
func (s *IsolateState) Lock()   { s.mu.Lock() }
func (s *IsolateState) Unlock() { s.mu.Unlock() }

// QueueTimer appends a new timer to the add in-box and returns its ID.
// Safe to call from a binding callback mid-turn.
func (s *IsolateState) QueueTimer(interval time.Duration, repeating bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTimerID++
	id := s.nextTimerID
	t := &Timer{ID: id, Deadline: time.Now().Add(interval)}
	if repeating {
		t.Interval = interval
	}
	s.timersToAdd = append(s.timersToAdd, t)
	return id
}

// QueueClearTimer appends a timer ID to the clear in-box.
func (s *IsolateState) QueueClearTimer(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timersToClear = append(s.timersToClear, id)
}

// DrainInboxes applies the pending add/clear in-boxes to ActiveTimers and
// returns the live timer set. Must be called at the top of every event loop
// turn, before any timer is inspected or fired, per the turn algorithm.
func (s *IsolateState) DrainInboxes() map[int]*Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timersToAdd {
		s.activeTimers[t.ID] = t
	}
	s.timersToAdd = s.timersToAdd[:0]
	for _, id := range s.timersToClear {
		delete(s.activeTimers, id)
	}
	s.timersToClear = s.timersToClear[:0]
	return s.activeTimers
}

// RescheduleInterval re-arms a repeating timer for its next deadline. Called
// by the event loop immediately after firing an interval timer.
func (s *IsolateState) RescheduleInterval(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.activeTimers[id]; ok && t.Interval > 0 && !t.Cleared {
		t.Deadline = time.Now().Add(t.Interval)
	}
}

// RemoveTimer deletes a one-shot timer after it fires.
func (s *IsolateState) RemoveTimer(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeTimers, id)
}

// HasRunnableWork reports whether any timer or fetch is still outstanding,
// i.e. whether the event loop must keep turning.
func (s *IsolateState) HasRunnableWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeTimers) > 0 || len(s.timersToAdd) > 0 || len(s.pendingFetches) > 0
}

// AddPendingFetch registers an in-flight fetch so the event loop polls it.
func (s *IsolateState) AddPendingFetch(f *FetchRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingFetches[f.ID] = f
}

// RemoveFetch drops a fetch once it has resolved or rejected.
func (s *IsolateState) RemoveFetch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingFetches, id)
}

// PendingFetches returns a snapshot slice of currently in-flight fetches.
func (s *IsolateState) PendingFetches() []*FetchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FetchRequest, 0, len(s.pendingFetches))
	for _, f := range s.pendingFetches {
		out = append(out, f)
	}
	return out
}

// CacheString stores an opaque cached value (an *v8go.Value, from the
// engine package's point of view) under name, if not already present.
func (s *IsolateState) CacheString(name string, make func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.stringCache[name]; ok {
		return v
	}
	v := make()
	s.stringCache[name] = v
	return v
}
