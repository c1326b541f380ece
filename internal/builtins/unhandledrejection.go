package builtins

import "github.com/jstime-go/jstime/internal/engine"

// unhandledRejectionGroup provides best-effort unhandled promise rejection
// tracking: PromiseRejectionEvent plus a microtask-based detector. A promise
// passed to globalThis.__trackRejection that gathers no .then/.catch handler
// before the next microtask checkpoint fires globalThis's
// 'unhandledrejection' event. No builtin or engine code calls
// __trackRejection, so a rejection is tracked only when a script passes it
// there itself. Ported from the
// teacher's root unhandledrejection.go, already written against
// tommie/v8go.
type unhandledRejectionGroup struct{}

// NewUnhandledRejection returns the unhandled-promise-rejection builtin group.
func NewUnhandledRejection() engine.BindingGroup { return &unhandledRejectionGroup{} }

func (g *unhandledRejectionGroup) Name() string { return "unhandledrejection" }

func (g *unhandledRejectionGroup) Register(rt *engine.Runtime) error {
	_, err := rt.Ctx.RunScript(unhandledRejectionJS, "unhandledrejection.js")
	return err
}

const unhandledRejectionJS = `
(function() {

class PromiseRejectionEvent extends Event {
	constructor(type, init) {
		super(type, init);
		this.promise = (init && init.promise) || null;
		this.reason = init && init.reason !== undefined ? init.reason : undefined;
	}
}

const _pendingRejections = new Map();
let _rejectionId = 0;

const _origPromise = globalThis.Promise;
const _origThen = _origPromise.prototype.then;
_origPromise.prototype.then = function(onFulfilled, onRejected) {
	const result = _origThen.call(this, onFulfilled, onRejected);
	if (typeof onRejected === 'function' && this.__rejectionId !== undefined) {
		_pendingRejections.delete(this.__rejectionId);
	}
	return result;
};

const _origCatch = _origPromise.prototype.catch;
_origPromise.prototype.catch = function(onRejected) {
	const result = _origCatch.call(this, onRejected);
	if (typeof onRejected === 'function' && this.__rejectionId !== undefined) {
		_pendingRejections.delete(this.__rejectionId);
	}
	return result;
};

globalThis.__trackRejection = function(promise, reason) {
	const id = ++_rejectionId;
	try {
		Object.defineProperty(promise, '__rejectionId', { value: id, writable: true, configurable: true });
	} catch (e) {
		return;
	}
	_pendingRejections.set(id, { promise, reason });
	queueMicrotask(function() {
		if (_pendingRejections.has(id)) {
			_pendingRejections.delete(id);
			const event = new PromiseRejectionEvent('unhandledrejection', {
				promise: promise,
				reason: reason,
				cancelable: true,
			});
			globalThis.dispatchEvent(event);
		}
	});
};

if (typeof globalThis.addEventListener !== 'function') {
	const et = new EventTarget();
	globalThis.addEventListener = et.addEventListener.bind(et);
	globalThis.removeEventListener = et.removeEventListener.bind(et);
	globalThis.dispatchEvent = et.dispatchEvent.bind(et);
}

globalThis.PromiseRejectionEvent = PromiseRejectionEvent;

})();
`
