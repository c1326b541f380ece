package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	v8 "github.com/tommie/v8go"

	"github.com/jstime-go/jstime/internal/core"
)

func writeFileHelper(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	iso, err := NewIsolate()
	if err != nil {
		t.Fatalf("NewIsolate: %v", err)
	}
	ctx := v8.NewContext(iso)
	state := core.NewIsolateState(nil)
	rt := &Runtime{Iso: iso, Ctx: ctx, State: state}
	RegisterState(iso, state)
	t.Cleanup(func() {
		UnregisterState(iso)
		ctx.Close()
		iso.Dispose()
	})
	return rt
}

// TestLoader_SharedDependencyLoadedOnce mirrors S7/S5: a module imported
// from two different sites must be compiled and evaluated exactly once, so
// side effects in its top-level code (here, a counter bump) are observed
// once rather than once per importer.
func TestLoader_SharedDependencyLoadedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shared.mjs"), `
		globalThis.__loadCount = (globalThis.__loadCount || 0) + 1;
		export const value = 42;
	`)
	writeFile(t, filepath.Join(dir, "a.mjs"), `
		import { value } from "./shared.mjs";
		globalThis.__a = value;
	`)
	writeFile(t, filepath.Join(dir, "b.mjs"), `
		import { value } from "./shared.mjs";
		globalThis.__b = value;
	`)
	writeFile(t, filepath.Join(dir, "main.mjs"), `
		import "./a.mjs";
		import "./b.mjs";
	`)

	rt := newTestRuntime(t)
	modules := NewModuleMap()
	loader := NewLoader(rt, modules)
	el := NewEventLoop(rt)

	_, err := loader.Import(filepath.Join(dir, "main.mjs"), el.Pump)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	val, err := rt.Ctx.RunScript("globalThis.__loadCount", "<check>")
	if err != nil {
		t.Fatalf("running check script: %v", err)
	}
	if got := val.Integer(); got != 1 {
		t.Errorf("__loadCount = %d, want 1 (shared module loaded once)", got)
	}
}

// TestLoader_TopLevelAwaitSettles exercises the await-capable loader variant
// mandated over the Rust original's panic-on-Pending variant: a module
// whose top-level code awaits a timer-backed promise must still resolve by
// the time Import returns.
func TestLoader_TopLevelAwaitSettles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.mjs"), `
		function wait(ms) {
			return new Promise((resolve) => {
				const id = __timerRegister(ms, false);
				globalThis.__timerCallbacks = globalThis.__timerCallbacks || {};
				globalThis.__timerCallbacks[id] = resolve;
			});
		}
		await wait(1);
		globalThis.__settled = true;
	`)

	rt := newTestRuntime(t)
	if err := RegisterFunc(rt, "__timerRegister", func(ms int) int {
		return rt.State.QueueTimer(time.Duration(ms)*time.Millisecond, false)
	}); err != nil {
		t.Fatalf("RegisterFunc: %v", err)
	}
	if _, err := rt.Ctx.RunScript(`globalThis.__timerFire = function(id) {
		if (globalThis.__timerCallbacks && globalThis.__timerCallbacks[id]) {
			globalThis.__timerCallbacks[id]();
			delete globalThis.__timerCallbacks[id];
		}
	}`, "<timerfire>"); err != nil {
		t.Fatalf("installing __timerFire: %v", err)
	}

	modules := NewModuleMap()
	loader := NewLoader(rt, modules)
	el := NewEventLoop(rt)

	_, err := loader.Import(filepath.Join(dir, "main.mjs"), el.Pump)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	val, err := rt.Ctx.RunScript("!!globalThis.__settled", "<check>")
	if err != nil {
		t.Fatalf("running check script: %v", err)
	}
	if !val.Boolean() {
		t.Error("expected top-level await to settle before Import returned")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := writeFileHelper(path, contents); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
