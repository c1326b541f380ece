package jstime

import "github.com/jstime-go/jstime/internal/core"

// Type aliases re-exporting internal/core types, mirroring the teacher's
// exports.go pattern so callers embedding this runtime never need to import
// an internal package directly.

type Timer = core.Timer
type FetchRequest = core.FetchRequest
type FetchResult = core.FetchResult

// Sentinel errors re-exported from internal/core.
var (
	ErrModuleNotFound   = core.ErrModuleNotFound
	ErrModuleCycle      = core.ErrModuleCycle
	ErrNoContext        = core.ErrNoContext
	ErrTimerNotFound    = core.ErrTimerNotFound
	ErrSnapshotMismatch = core.ErrSnapshotMismatch
)
