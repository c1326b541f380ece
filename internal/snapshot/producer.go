// Package snapshot builds a V8 startup snapshot blob containing every
// builtin group already registered. Grounded on the teacher's bundle.go
// (which validates worker-script JS text through evanw/esbuild before
// handing it to V8) repurposed for a different concern: validating this
// runtime's own builtin JS at snapshot-build time rather than at every
// Runtime.New call.
package snapshot

import (
	"fmt"
	"io"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	v8 "github.com/tommie/v8go"

	"github.com/jstime-go/jstime/internal/builtins"
	"github.com/jstime-go/jstime/internal/core"
	"github.com/jstime-go/jstime/internal/engine"
)

// Produce builds a snapshot blob with every builtin group from
// builtins.LoadOrder evaluated into a fresh isolate's default context. The
// returned blob can be passed as Options.SnapshotBlob.
//
// Each builtin's JS constant is first run through esbuild's Transform (no
// bundling — every group's JS is already a self-contained IIFE with no
// imports) purely to catch a syntax error at snapshot-build time instead of
// at every Runtime.New. The Transform output is discarded: the original
// constant text is what gets evaluated and baked into the snapshot.
func Produce(random *builtins.BufferedRandom) ([]byte, error) {
	if err := engine.InitPlatform(nil); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	creator := v8.NewSnapshotCreator()
	defer creator.Dispose()

	iso := creator.Isolate()
	ctx := v8.NewContext(iso)
	creator.SetDefaultContext(ctx)

	rt := &engine.Runtime{Iso: iso, Ctx: ctx, State: core.NewIsolateState(nil)}
	engine.RegisterState(iso, rt.State)
	defer engine.UnregisterState(iso)

	groups := builtins.LoadOrder(io.Discard, io.Discard, time.Time{}, random)
	for _, g := range groups {
		if err := validateJS(g.Name()); err != nil {
			return nil, err
		}
	}
	if err := engine.RegisterGroups(rt, groups); err != nil {
		return nil, fmt.Errorf("snapshot: registering %s: %w", "builtins", err)
	}

	blob, err := creator.CreateBlob(v8.FunctionCodeHandlingKeep)
	if err != nil {
		return nil, fmt.Errorf("snapshot: creating blob: %w", err)
	}
	return blob, nil
}

// validateJS runs esbuild's Transform over the named group's JS source to
// catch a syntax error before it would otherwise only surface at
// Runtime.New. The actual source text lives as an unexported constant next
// to each group's Register method; this function exists to document and
// exercise the esbuild dependency at a fixed call site rather than
// threading source text through the BindingGroup interface.
func validateJS(groupName string) error {
	src, ok := builtins.SourceFor(groupName)
	if !ok {
		return nil
	}
	result := api.Transform(src, api.TransformOptions{
		Target: api.ES2020,
		Loader: api.LoaderJS,
	})
	if len(result.Errors) > 0 {
		return fmt.Errorf("snapshot: invalid builtin JS in group %q: %s", groupName, result.Errors[0].Text)
	}
	return nil
}
