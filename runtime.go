// Package jstime embeds a V8-backed JavaScript runtime with a Node/Web-API
// compatible set of globals: console, timers, fetch, crypto, URL, Temporal,
// and a small Node-compat surface (process, EventEmitter). Grounded on the
// original jstime project (_examples/original_source), built from the
// cryguy-worker repository's V8 embedding conventions.
package jstime

import (
	"fmt"
	"os"
	"time"

	v8 "github.com/tommie/v8go"

	"github.com/jstime-go/jstime/internal/builtins"
	"github.com/jstime-go/jstime/internal/core"
	"github.com/jstime-go/jstime/internal/engine"
)

// Runtime is one V8 isolate, its single global context, and the builtins
// registered against it. A Runtime is not safe for concurrent use from
// multiple goroutines — this mirrors the single-threaded nature of a V8
// isolate, not an arbitrary restriction.
type Runtime struct {
	iso     *v8.Isolate
	ctx     *v8.Context
	state   *core.IsolateState
	rt      *engine.Runtime
	loop    *engine.EventLoop
	loader  *engine.Loader
	modules *engine.ModuleMap
	warmup  uint32
}

// New creates a Runtime configured by opts. argv is exposed to scripts as
// process.argv (conventionally argv[0] is the script path, matching
// Node/Deno's argv[1] convention minus the interpreter itself).
func New(opts Options, argv []string) (*Runtime, error) {
	if err := engine.InitPlatform(opts.V8Flags); err != nil {
		return nil, fmt.Errorf("jstime: %w", err)
	}

	iso, err := newIsolate(opts)
	if err != nil {
		return nil, fmt.Errorf("jstime: %w", err)
	}
	ctx := v8.NewContext(iso)

	state := core.NewIsolateState(argv)
	engine.RegisterState(iso, state)

	rt := &engine.Runtime{Iso: iso, Ctx: ctx, State: state}
	random := builtins.NewBufferedRandom()
	groups := builtins.LoadOrder(os.Stdout, os.Stderr, time.Now(), random)
	if err := engine.RegisterGroups(rt, groups); err != nil {
		engine.UnregisterState(iso)
		return nil, fmt.Errorf("jstime: %w", err)
	}

	modules := engine.NewModuleMap()
	r := &Runtime{
		iso:     iso,
		ctx:     ctx,
		state:   state,
		rt:      rt,
		loop:    engine.NewEventLoop(rt),
		loader:  engine.NewLoader(rt, modules),
		modules: modules,
		warmup:  opts.Warmup,
	}

	return r, nil
}

func newIsolate(opts Options) (*v8.Isolate, error) {
	if len(opts.SnapshotBlob) == 0 {
		return engine.NewIsolate()
	}
	iso := v8.NewIsolate(v8.WithSnapshot(opts.SnapshotBlob))
	if iso == nil {
		return nil, fmt.Errorf("v8.NewIsolate with snapshot returned nil")
	}
	return iso, nil
}

// Close releases the isolate. A Runtime must not be used after Close.
func (r *Runtime) Close() {
	engine.UnregisterState(r.iso)
	r.ctx.Close()
	r.iso.Dispose()
}

// RunScript evaluates source as a classic script named filename, draining
// the event loop to quiescence afterward so any timers or fetches it
// started get a chance to run. Returns the uncaught-exception string
// (FormatJSError-rendered) as the error's message on a thrown exception.
//
// If Options.Warmup was set to a nonzero count, source/filename are first
// run that many times back to back, each pass's return value discarded but
// any error propagated immediately — side effects on shared globals persist
// across passes and into the final run, since every pass shares the same
// context, only the intermediate completion values are thrown away.
func (r *Runtime) RunScript(source, filename string) (string, error) {
	for i := uint32(0); i < r.warmup; i++ {
		if _, err := r.runAndDrain(source, filename); err != nil {
			return "", fmt.Errorf("jstime: warmup pass %d: %w", i, err)
		}
	}
	return r.runAndDrain(source, filename)
}

func (r *Runtime) runAndDrain(source, filename string) (string, error) {
	val, err := r.rt.RunScript(source, filename)
	if err != nil {
		return "", fmt.Errorf("%s", engine.FormatJSError(err))
	}
	if err := r.loop.Drain(time.Time{}); err != nil {
		return "", err
	}
	if val == nil {
		return "undefined", nil
	}
	return val.String(), nil
}

// Import loads and evaluates the ES module at path, driving the event loop
// as needed to settle any top-level await, then drains remaining timers and
// fetches to quiescence.
func (r *Runtime) Import(path string) (string, error) {
	val, err := r.loader.Import(path, r.loop.Pump)
	if err != nil {
		return "", fmt.Errorf("%s", err.Error())
	}
	if err := r.loop.Drain(time.Time{}); err != nil {
		return "", err
	}
	if val == nil {
		return "undefined", nil
	}
	return val.String(), nil
}
