// Package engine implements the hard core of the runtime: isolate and
// context lifecycle, the script runner, the ES module loader, the event
// loop, and the binding bridge that wires native Go functions into V8. It is
// grounded on internal/v8engine from the teacher repository and, for exact
// semantics, on the original jstime Rust sources under
// _examples/original_source/core/src.
package engine

import (
	"fmt"
	"sync"

	v8 "github.com/tommie/v8go"
)

var (
	platformOnce sync.Once
	platformErr  error
)

// InitPlatform performs process-wide, one-time V8 setup. tommie/v8go
// initializes the underlying V8 platform in its own package init, so there
// is no separate platform-start call to make here; InitPlatform's job is to
// guard against callers assuming repeated initialization is free, and to
// give a single place to record that custom V8 flags were requested.
//
// flags are passed to v8.SetFlags, which tommie/v8go applies process-wide
// (V8 does not support per-isolate flags); calling InitPlatform a second
// time with a different flag set is a programming error and returns
// platformErr from the first call without re-applying anything.
func InitPlatform(flags []string) error {
	platformOnce.Do(func() {
		if len(flags) > 0 {
			v8.SetFlags(flags...)
		}
	})
	return platformErr
}

// NewIsolate creates a fresh V8 isolate. Exists as a thin wrapper so that
// future resource-constraint plumbing (heap size options on Options) has one
// call site.
func NewIsolate() (*v8.Isolate, error) {
	iso := v8.NewIsolate()
	if iso == nil {
		return nil, fmt.Errorf("engine: v8.NewIsolate returned nil")
	}
	return iso, nil
}
