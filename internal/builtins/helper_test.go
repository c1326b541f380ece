package builtins

import (
	"testing"
	"time"

	v8 "github.com/tommie/v8go"

	"github.com/jstime-go/jstime/internal/core"
	"github.com/jstime-go/jstime/internal/engine"
)

// newTestRuntime returns a Runtime with every builtin group registered,
// for tests that exercise a group's JS surface end to end. Mirrors
// internal/engine/loader_test.go's newTestRuntime helper.
func newTestRuntime(t *testing.T) *engine.Runtime {
	t.Helper()
	iso, err := engine.NewIsolate()
	if err != nil {
		t.Fatalf("NewIsolate: %v", err)
	}
	ctx := v8.NewContext(iso)
	state := core.NewIsolateState(nil)
	rt := &engine.Runtime{Iso: iso, Ctx: ctx, State: state}
	engine.RegisterState(iso, state)
	t.Cleanup(func() {
		engine.UnregisterState(iso)
		ctx.Close()
		iso.Dispose()
	})

	groups := LoadOrder(testWriter{t, false}, testWriter{t, true}, time.Now(), NewBufferedRandom())
	if err := engine.RegisterGroups(rt, groups); err != nil {
		t.Fatalf("RegisterGroups: %v", err)
	}
	return rt
}

// testWriter routes builtin console/output writes into t.Log so a failing
// test's console.log calls show up in test output instead of vanishing.
type testWriter struct {
	t    *testing.T
	isErr bool
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

func evalBool(t *testing.T, rt *engine.Runtime, expr string) bool {
	t.Helper()
	val, err := rt.Ctx.RunScript(expr, "<test>")
	if err != nil {
		t.Fatalf("evaluating %q: %v", expr, err)
	}
	return val.Boolean()
}

func evalString(t *testing.T, rt *engine.Runtime, expr string) string {
	t.Helper()
	val, err := rt.Ctx.RunScript(expr, "<test>")
	if err != nil {
		t.Fatalf("evaluating %q: %v", expr, err)
	}
	return val.String()
}
