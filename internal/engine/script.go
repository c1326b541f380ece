package engine

import (
	"errors"
	"fmt"

	v8 "github.com/tommie/v8go"
)

// RunScript compiles and runs source as a classic (non-module) script named
// filename, returning its completion value. Grounded on
// _examples/original_source/core/src/script.rs's run(): compile via an
// unbound script (so the resource name participates in stack traces exactly
// as a freshly-origin-tagged script would), then execute against the
// runtime's single context.
//
// On a thrown JS exception, the error returned wraps a *v8.JSError; callers
// that need the "<Name>: <message>\n    at <file>:<line>:<col>" rendering
// required by the runtime facade's uncaught-exception contract should use
// FormatJSError.
func (rt *Runtime) RunScript(source, filename string) (*v8.Value, error) {
	unbound, err := rt.Iso.CompileUnboundScript(source, filename, v8.CompileOptions{})
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", filename, err)
	}
	val, err := unbound.Run(rt.Ctx)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", filename, err)
	}
	return val, nil
}

// FormatJSError renders a V8 exception the way script.rs falls back between
// a full stack trace and the bare exception string: prefer err's stack
// trace text when V8 supplied one, otherwise fall back to the exception's
// own Error()/message text.
func FormatJSError(err error) string {
	var jsErr *v8.JSError
	if errors.As(err, &jsErr) {
		if jsErr.StackTrace != "" {
			return jsErr.StackTrace
		}
		return fmt.Sprintf("%s: %s", jsErr.Name, jsErr.Message)
	}
	return err.Error()
}
