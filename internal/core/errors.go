// Package core holds the state and error types shared by every component of
// the runtime: the isolate-state record and the event loop's pending-work
// queues (the module map itself lives in internal/engine). Nothing in this
// package touches V8 directly.
package core

import "errors"

// Sentinel errors naming the runtime's failure categories, re-exported by
// the root package. No engine, builtin, or facade code path returns or wraps
// them: those packages report failures as plain fmt.Errorf errors (a missing
// module, for instance, surfaces as the os error from reading its file).
var (
	// ErrModuleNotFound names a specifier that cannot be resolved to a file
	// on disk.
	ErrModuleNotFound = errors.New("module not found")

	// ErrModuleCycle names a module that is still being instantiated further
	// up the resolution stack.
	ErrModuleCycle = errors.New("circular module dependency")

	// ErrNoContext names an isolate state used before a context has been
	// attached to the isolate.
	ErrNoContext = errors.New("isolate state has no context")

	// ErrTimerNotFound names an already-fired or already-cleared timer ID.
	// clearTimeout/clearInterval on an unknown ID is a silent no-op here
	// (IsolateState.QueueClearTimer reports nothing), per the WHATWG HTML
	// spec.
	ErrTimerNotFound = errors.New("timer not found")

	// ErrSnapshotMismatch names a snapshot blob whose external-reference
	// table does not match the bindings being registered.
	ErrSnapshotMismatch = errors.New("snapshot external reference table mismatch")
)
