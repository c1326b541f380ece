package engine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	v8 "github.com/tommie/v8go"

	"github.com/jstime-go/jstime/internal/core"
)

// Runtime bundles one isolate, its single context, and the IsolateState
// reachable from every binding registered against it. A jstime runtime owns
// exactly one Runtime for its lifetime; there is no pooling (unlike the
// teacher's multi-tenant v8Pool) because this spec has no multi-isolate or
// multi-thread model.
type Runtime struct {
	Iso   *v8.Isolate
	Ctx   *v8.Context
	State *core.IsolateState
}

var (
	statesMu sync.Mutex
	states   = map[*v8.Isolate]*core.IsolateState{}
)

// RegisterState associates an IsolateState with its isolate so that native
// callbacks — which only receive a *v8.Isolate via FunctionCallbackInfo —
// can recover it. This is the Go-side substitute for the Rust original's
// scope.get_slot/set_slot embedder-data mechanism; v8go does not expose
// generic embedder data slots to Go, so a package-level registry keyed by
// isolate pointer fills the same role.
func RegisterState(iso *v8.Isolate, state *core.IsolateState) {
	statesMu.Lock()
	defer statesMu.Unlock()
	states[iso] = state
}

// UnregisterState removes the association, called when a Runtime is closed.
func UnregisterState(iso *v8.Isolate) {
	statesMu.Lock()
	defer statesMu.Unlock()
	delete(states, iso)
}

// StateFor recovers the IsolateState for iso, or nil if none was registered.
func StateFor(iso *v8.Isolate) *core.IsolateState {
	statesMu.Lock()
	defer statesMu.Unlock()
	return states[iso]
}

// BindingGroup is one named group of native bindings plus the JS source that
// wraps them into a friendlier surface (e.g. console, timers, crypto). The
// engine registers groups in LoadOrder so that a later group's JS text can
// depend on an earlier group's globals (EventTarget before AbortController,
// for instance).
type BindingGroup interface {
	// Name identifies the group for logging and the snapshot producer's
	// fixed evaluation order.
	Name() string

	// Register installs the group's native Go functions and evaluates its
	// JS wrapper source against rt.Ctx.
	Register(rt *Runtime) error
}

// RegisterFunc installs fn as a global JavaScript function called name on
// rt.Ctx. fn's Go parameter types are converted from the JS arguments
// positionally; fn may return (T), (error), or (T, error). A non-nil error
// return throws a JavaScript TypeError instead of propagating a Go panic —
// this mirrors the teacher's RegisterFunc/registerGoFunc convention
// (internal/v8engine/runtime.go, root helpers.go), ported to operate
// directly against v8go's FunctionTemplate rather than quickjs's
// multi-return-as-array convention.
func RegisterFunc(rt *Runtime, name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("engine: RegisterFunc(%q): fn must be a function, got %s", name, fnType.Kind())
	}

	numOut := fnType.NumOut()
	if numOut > 2 {
		return fmt.Errorf("engine: RegisterFunc(%q): at most 2 return values supported, got %d", name, numOut)
	}
	returnsErr := numOut > 0 && fnType.Out(numOut-1) == reflect.TypeOf((*error)(nil)).Elem()

	tmpl := v8.NewFunctionTemplate(rt.Iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		want := fnType.NumIn()
		if len(args) < want {
			return throwTypeError(rt, fmt.Sprintf("%s requires at least %d argument(s)", name, want))
		}

		goArgs := make([]reflect.Value, want)
		for i := 0; i < want; i++ {
			gv, err := jsToGoArg(args[i], fnType.In(i))
			if err != nil {
				return throwTypeError(rt, fmt.Sprintf("%s: argument %d: %v", name, i, err))
			}
			goArgs[i] = gv
		}

		results := fnVal.Call(goArgs)

		if numOut == 0 {
			return nil
		}
		if returnsErr {
			if errVal := results[numOut-1]; !errVal.IsNil() {
				return throwTypeError(rt, fmt.Sprintf("%s: %v", name, errVal.Interface().(error)))
			}
			if numOut == 1 {
				return nil
			}
			return goToJSValue(rt.Iso, results[0])
		}
		return goToJSValue(rt.Iso, results[0])
	})

	fn8, err := tmpl.GetFunction(rt.Ctx)
	if err != nil {
		return fmt.Errorf("engine: RegisterFunc(%q): %w", name, err)
	}
	return rt.Ctx.Global().Set(name, fn8)
}

func throwTypeError(rt *Runtime, msg string) *v8.Value {
	lit, _ := json.Marshal(msg)
	if errVal, err := rt.Ctx.RunScript("new TypeError("+string(lit)+")", "<binding>"); err == nil {
		return rt.Iso.ThrowException(errVal)
	}
	val, err := v8.NewValue(rt.Iso, msg)
	if err != nil {
		return rt.Iso.ThrowException(mustString(rt.Iso, "TypeError"))
	}
	return rt.Iso.ThrowException(val)
}

func mustString(iso *v8.Isolate, s string) *v8.Value {
	v, _ := v8.NewValue(iso, s)
	return v
}

func jsToGoArg(v *v8.Value, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(v.String()).Convert(t), nil
	case reflect.Bool:
		return reflect.ValueOf(v.Boolean()).Convert(t), nil
	case reflect.Int, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(v.Integer()).Convert(t), nil
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		i := v.Integer()
		if i < 0 {
			return reflect.Value{}, fmt.Errorf("expected non-negative integer, got %d", i)
		}
		return reflect.ValueOf(uint64(i)).Convert(t), nil
	case reflect.Float64, reflect.Float32:
		return reflect.ValueOf(v.Number()).Convert(t), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(v.String())), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("unsupported binding argument type %s", t)
}

func goToJSValue(iso *v8.Isolate, rv reflect.Value) *v8.Value {
	var v *v8.Value
	var err error
	switch rv.Kind() {
	case reflect.String:
		v, err = v8.NewValue(iso, rv.String())
	case reflect.Bool:
		v, err = v8.NewValue(iso, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err = v8.NewValue(iso, int32(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err = v8.NewValue(iso, uint32(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		v, err = v8.NewValue(iso, rv.Float())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			v, err = v8.NewValue(iso, string(rv.Bytes()))
		}
	}
	if err != nil || v == nil {
		return nil
	}
	return v
}
