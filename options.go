package jstime

// Options configures a Runtime. The zero value is a usable configuration:
// no snapshot blob (builtins run from source every time), no warmup passes,
// and no extra V8 flags. Mirrors the teacher's core.EngineConfig
// struct-of-primitives convention (internal/core/config.go) rather than a
// functional-options pattern, since the teacher never uses one.
type Options struct {
	// SnapshotBlob, if non-nil, is a V8 startup snapshot produced by
	// internal/snapshot.Produce, used to create the isolate. New still
	// registers every builtin group (native bindings and JS text) on each
	// call; the blob does not skip that evaluation.
	SnapshotBlob []byte

	// Warmup is the number of throwaway script/module runs executed and
	// discarded before the real script's output is returned, used to let
	// the isolate's JIT tiers warm up before a latency-sensitive run.
	// Zero means no warmup passes.
	Warmup uint32

	// V8Flags are passed verbatim to v8.SetFlags on the first Runtime
	// created in the process (V8 flags are process-global and can only be
	// set once).
	V8Flags []string
}
