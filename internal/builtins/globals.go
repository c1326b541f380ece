package builtins

import (
	"time"

	"github.com/jstime-go/jstime/internal/engine"
)

// globalsGroup installs queueMicrotask, performance.now, and structuredClone.
// Grounded on the teacher's internal/webapi/globals.go, trimmed of the
// Workers-specific navigator.sendBeacon/waitUntil surface this spec has no
// use for.
type globalsGroup struct {
	start time.Time
}

// NewGlobals returns the globals builtin group. start is the instant
// performance.now() measures elapsed time from (the runtime's creation).
func NewGlobals(start time.Time) engine.BindingGroup {
	return &globalsGroup{start: start}
}

func (g *globalsGroup) Name() string { return "globals" }

func (g *globalsGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__performanceNowMs", func() float64 {
		return float64(time.Since(g.start).Microseconds()) / 1000.0
	}); err != nil {
		return err
	}
	_, err := rt.Ctx.RunScript(globalsJS, "globals.js")
	return err
}

// globalsJS implements queueMicrotask (via a genuinely native microtask — a
// resolved Promise's .then callback runs on V8's own microtask queue, the
// same queue PerformMicrotaskCheckpoint drains, so this is not a polyfill of
// task scheduling, just its most direct JS-visible hook), performance.now,
// and structuredClone.
//
// structuredClone here is a pure-JS deep clone rather than a round-trip
// through V8's C++ value serializer: tommie/v8go does not expose the
// serializer to Go code, and fabricating that binding would mean inventing
// an API the dependency does not have. The clone algorithm (Map-based
// circular reference detection, Map/Set/Date/RegExp/ArrayBuffer/typed-array
// support) is carried over from the teacher's internal/webapi/globals.go
// deepClone/cloneError, with the two error messages aligned to the exact
// strings this runtime's structuredClone contract specifies.
const globalsJS = `
(function() {

globalThis.queueMicrotask = function(fn) {
	if (typeof fn !== 'function') throw new TypeError('queueMicrotask requires a function argument');
	Promise.resolve().then(fn);
};

globalThis.performance = globalThis.performance || {};
globalThis.performance.now = function() { return __performanceNowMs(); };
globalThis.performance.timeOrigin = 0;

function cloneValue(v, seen) {
	if (v === null || typeof v !== 'object') {
		if (typeof v === 'function' || typeof v === 'symbol') {
			throw new DOMException('Host objects are not supported in structuredClone', 'DataCloneError');
		}
		return v;
	}
	if (seen.has(v)) return seen.get(v);

	if (v instanceof Date) return new Date(v.getTime());
	if (v instanceof RegExp) return new RegExp(v.source, v.flags);
	if (v instanceof ArrayBuffer) return v.slice(0);
	if (ArrayBuffer.isView(v)) {
		const ctor = v.constructor;
		return new ctor(v.buffer.slice(0), v.byteOffset, v.length !== undefined ? v.length : undefined);
	}
	if (v instanceof Map) {
		const out = new Map();
		seen.set(v, out);
		for (const [k, val] of v) out.set(cloneValue(k, seen), cloneValue(val, seen));
		return out;
	}
	if (v instanceof Set) {
		const out = new Set();
		seen.set(v, out);
		for (const item of v) out.add(cloneValue(item, seen));
		return out;
	}
	if (v instanceof Error) {
		const out = new Error(v.message);
		out.name = v.name;
		out.stack = v.stack;
		return out;
	}
	if (Array.isArray(v)) {
		const out = [];
		seen.set(v, out);
		for (let i = 0; i < v.length; i++) out[i] = cloneValue(v[i], seen);
		return out;
	}
	if (v instanceof Promise || v instanceof WeakMap || v instanceof WeakSet) {
		throw new DOMException('Host objects are not supported in structuredClone', 'DataCloneError');
	}

	const proto = Object.getPrototypeOf(v);
	if (proto !== Object.prototype && proto !== null) {
		throw new DOMException('Value could not be cloned', 'DataCloneError');
	}
	const out = {};
	seen.set(v, out);
	for (const key of Object.keys(v)) out[key] = cloneValue(v[key], seen);
	return out;
}

globalThis.structuredClone = function(value) {
	return cloneValue(value, new Map());
};

})();
`
