package engine

import (
	"fmt"
	"os"
	"path/filepath"

	v8 "github.com/tommie/v8go"
)

// ModuleMap is the bidirectional relation between a module's canonical file
// path and its compiled *v8.Module, plus the identity-hash index V8 hands
// back to the resolver callback (which only receives the referrer module,
// not its path). Grounded 1:1 on
// _examples/original_source/core/src/module.rs's ModuleMap.
//
// A module is compiled exactly once per canonical path for the lifetime of
// the runtime: two import sites sharing a dependency see the same *v8.Module
// and therefore the same module-level state (the "shared dependency graph,
// single instantiation" invariant).
type ModuleMap struct {
	hashToPath map[int]string
	pathToMod  map[string]*v8.Module
}

// NewModuleMap returns an empty module map.
func NewModuleMap() *ModuleMap {
	return &ModuleMap{
		hashToPath: make(map[int]string),
		pathToMod:  make(map[string]*v8.Module),
	}
}

func (m *ModuleMap) insert(path string, mod *v8.Module) {
	m.pathToMod[path] = mod
	m.hashToPath[mod.GetIdentityHash()] = path
}

func (m *ModuleMap) get(path string) (*v8.Module, bool) {
	mod, ok := m.pathToMod[path]
	return mod, ok
}

func (m *ModuleMap) pathForHash(hash int) (string, bool) {
	p, ok := m.hashToPath[hash]
	return p, ok
}

// normalizePath resolves specifier relative to referrerPath the way ES
// module resolution does for relative/absolute specifiers: an absolute
// specifier passes through (after symlink/"."/".." cleanup), otherwise it is
// joined against the referrer's directory. Bare specifiers (no leading "."
// or "/") are rejected — this loader has no node_modules resolution
// algorithm, matching the original's normalize_path which only ever handles
// filesystem-relative or absolute paths.
func normalizePath(referrerPath, specifier string) (string, error) {
	var joined string
	if filepath.IsAbs(specifier) {
		joined = specifier
	} else if specifier == "." || specifier == ".." ||
		len(specifier) >= 2 && (specifier[:2] == "./" || specifier[:2] == "..") {
		joined = filepath.Join(filepath.Dir(referrerPath), specifier)
	} else {
		return "", fmt.Errorf("bare module specifier %q is not supported", specifier)
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// File may not exist yet (resolve() below produces the real error);
		// fall back to the lexically-cleaned path so the caller's os.Stat
		// reports a precise "module not found".
		return filepath.Clean(joined), nil
	}
	return resolved, nil
}

// virtualModules maps a bare specifier (with or without the "node:" prefix)
// to synthetic ES module source text. Builtin groups that want their global
// also reachable via `import { X } from "events"` register into this map
// instead of teaching the resolver a node_modules algorithm. Grounded on the
// small, fixed set of node: built-ins the original jstime implementation
// exposes (events, process) rather than a general package resolver.
var virtualModules = map[string]string{
	"events": `
		const EventEmitter = globalThis.EventEmitter;
		export { EventEmitter };
		export default EventEmitter;
	`,
	"process": `
		const env = globalThis.process.env;
		const argv = globalThis.process.argv;
		function cwd() { return globalThis.process.cwd(); }
		export { env, argv, cwd };
		export default globalThis.process;
	`,
}

func virtualModuleSource(specifier string) (string, bool) {
	name := specifier
	if len(name) > 5 && name[:5] == "node:" {
		name = name[5:]
	}
	src, ok := virtualModules[name]
	return src, ok
}

// Loader resolves, compiles, and evaluates ES modules against one Runtime.
type Loader struct {
	rt      *Runtime
	modules *ModuleMap
}

// NewLoader returns a Loader bound to rt's module map.
func NewLoader(rt *Runtime, modules *ModuleMap) *Loader {
	return &Loader{rt: rt, modules: modules}
}

// resolveVirtual compiles and caches specifier's virtual module source under
// the key "virtual:<specifier>" so repeated imports of "events" share one
// module instance, matching the shared-dependency-graph invariant the
// filesystem path does for on-disk modules.
func (l *Loader) resolveVirtual(specifier string) (*v8.Module, error) {
	src, ok := virtualModuleSource(specifier)
	if !ok {
		return nil, fmt.Errorf("bare module specifier %q is not supported", specifier)
	}
	key := "virtual:" + specifier
	if mod, ok := l.modules.get(key); ok {
		return mod, nil
	}
	mod, err := l.rt.Iso.CompileModule(src, key)
	if err != nil {
		return nil, fmt.Errorf("compiling virtual module %s: %w", specifier, err)
	}
	l.modules.insert(key, mod)
	return mod, nil
}

// resolve compiles path if not already cached, inserting it into the module
// map, and returns the compiled module. Grounded on module.rs's resolve().
func (l *Loader) resolve(path string) (*v8.Module, error) {
	if mod, ok := l.modules.get(path); ok {
		return mod, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading module %s: %w", path, err)
	}
	mod, err := l.rt.Iso.CompileModule(string(src), path)
	if err != nil {
		return nil, fmt.Errorf("compiling module %s: %w", path, err)
	}
	l.modules.insert(path, mod)
	return mod, nil
}

// resolveCallback implements v8.ModuleResolverCallback: given a referrer
// module, find its canonical path via the identity-hash index, normalize
// specifier against it, and resolve (compiling on first sight). Grounded on
// module.rs's module_resolve_callback.
func (l *Loader) resolveCallback(specifier string, referrer *v8.Module) *v8.Module {
	if _, ok := virtualModuleSource(specifier); ok {
		mod, err := l.resolveVirtual(specifier)
		if err != nil {
			return nil
		}
		return mod
	}

	refPath, ok := l.modules.pathForHash(referrer.GetIdentityHash())
	if !ok {
		return nil
	}
	path, err := normalizePath(refPath, specifier)
	if err != nil {
		return nil
	}
	mod, err := l.resolve(path)
	if err != nil {
		return nil
	}
	return mod
}

// Import compiles, instantiates, and evaluates the module at path, pumping
// the event loop until module-level top-level-await settles. Grounded on
// module.rs's Loader::import: instantiate with the resolver callback,
// evaluate, and match on the resulting promise's state — Pending here means
// the event loop must be driven further (the loader-variant this spec
// mandates, as opposed to the Rust original's panic-on-Pending variant,
// which assumed the caller always drains the loop to completion first).
func (l *Loader) Import(path string, pump func() bool) (*v8.Value, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		absPath = resolved
	}

	mod, err := l.resolve(absPath)
	if err != nil {
		return nil, err
	}
	if err := mod.InstantiateModule(l.rt.Ctx, l.resolveCallback); err != nil {
		return nil, fmt.Errorf("instantiating module %s: %w", absPath, err)
	}
	val, err := mod.Evaluate(l.rt.Ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluating module %s: %w", absPath, err)
	}

	promise, err := val.AsPromise()
	if err != nil {
		// Some V8 builds return a non-promise completion value for modules
		// with no top-level await; treat that as already-fulfilled.
		return val, nil
	}

	for promise.State() == v8.Pending {
		if !pump() {
			break
		}
	}
	switch promise.State() {
	case v8.Fulfilled:
		return promise.Result(), nil
	case v8.Rejected:
		return nil, fmt.Errorf("module %s rejected: %s", absPath, promise.Result())
	default:
		return nil, fmt.Errorf("module %s: top-level await never settled", absPath)
	}
}
