package builtins

import (
	"bytes"
	"testing"
	"time"

	v8 "github.com/tommie/v8go"

	"github.com/jstime-go/jstime/internal/core"
	"github.com/jstime-go/jstime/internal/engine"
)

// newCapturingRuntime is like newTestRuntime but keeps direct handles on the
// stdout/stderr buffers so a test can assert on exact formatted output
// rather than just truthiness, per spec.md S6's directive-substitution table.
func newCapturingRuntime(t *testing.T) (*engine.Runtime, *bytes.Buffer, *bytes.Buffer) {
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

	var stdout, stderr bytes.Buffer
	groups := LoadOrder(&stdout, &stderr, time.Now(), NewBufferedRandom())
	if err := engine.RegisterGroups(rt, groups); err != nil {
		t.Fatalf("RegisterGroups: %v", err)
	}
	return rt, &stdout, &stderr
}

func TestConsoleLog_SubstitutesDirectiveWithTrailingArg(t *testing.T) {
	rt, stdout, _ := newCapturingRuntime(t)
	if _, err := rt.Ctx.RunScript(`console.log("first %s third", "second")`, "<test>"); err != nil {
		t.Fatalf("running script: %v", err)
	}
	if got, want := stdout.String(), "first second third\n"; got != want {
		t.Errorf("console.log output = %q, want %q", got, want)
	}
}

func TestConsoleLog_UnmatchedDirectiveLeftLiteral(t *testing.T) {
	rt, stdout, _ := newCapturingRuntime(t)
	if _, err := rt.Ctx.RunScript(`console.log("first %second third")`, "<test>"); err != nil {
		t.Fatalf("running script: %v", err)
	}
	if got, want := stdout.String(), "first %second third\n"; got != want {
		t.Errorf("console.log output = %q, want %q", got, want)
	}
}

func TestConsoleLog_ExcessArgsSpaceJoined(t *testing.T) {
	rt, stdout, _ := newCapturingRuntime(t)
	if _, err := rt.Ctx.RunScript(`console.log("first", "second", 3)`, "<test>"); err != nil {
		t.Fatalf("running script: %v", err)
	}
	if got, want := stdout.String(), "first second 3\n"; got != want {
		t.Errorf("console.log output = %q, want %q", got, want)
	}
}

func TestConsoleLog_NoRemainingArgPrintsDirectiveLiterally(t *testing.T) {
	rt, stdout, _ := newCapturingRuntime(t)
	if _, err := rt.Ctx.RunScript(`console.log("first second %s")`, "<test>"); err != nil {
		t.Fatalf("running script: %v", err)
	}
	if got, want := stdout.String(), "first second %s\n"; got != want {
		t.Errorf("console.log output = %q, want %q", got, want)
	}
}

func TestConsoleWarn_WritesToStderrNotStdout(t *testing.T) {
	rt, stdout, stderr := newCapturingRuntime(t)
	if _, err := rt.Ctx.RunScript(`console.warn("uh oh")`, "<test>"); err != nil {
		t.Fatalf("running script: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected console.warn to write nothing to stdout, got %q", stdout.String())
	}
	if got, want := stderr.String(), "uh oh\n"; got != want {
		t.Errorf("console.warn output = %q, want %q", got, want)
	}
}

func TestConsoleGroup_IndentsNestedLogs(t *testing.T) {
	rt, stdout, _ := newCapturingRuntime(t)
	if _, err := rt.Ctx.RunScript(`
		console.log("outer");
		console.group();
		console.log("inner");
		console.groupEnd();
		console.log("outer again");
	`, "<test>"); err != nil {
		t.Fatalf("running script: %v", err)
	}
	want := "outer\n  inner\nouter again\n"
	if got := stdout.String(); got != want {
		t.Errorf("console.group indentation = %q, want %q", got, want)
	}
}

func TestConsoleCount_IncrementsPerLabel(t *testing.T) {
	rt, stdout, _ := newCapturingRuntime(t)
	if _, err := rt.Ctx.RunScript(`
		console.count("x");
		console.count("x");
		console.count("y");
	`, "<test>"); err != nil {
		t.Fatalf("running script: %v", err)
	}
	want := "x: 1\nx: 2\ny: 1\n"
	if got := stdout.String(); got != want {
		t.Errorf("console.count output = %q, want %q", got, want)
	}
}
