package builtins

import "github.com/jstime-go/jstime/internal/engine"

// abortGroup installs Event, EventTarget, AbortSignal, AbortController,
// CustomEvent, and DOMException as pure JS polyfills. Ported from the
// teacher's root abort.go, dropping ScheduledEvent (cron trigger events —
// Workers-only, no scheduler in this spec).
type abortGroup struct{}

// NewAbort returns the EventTarget/AbortController builtin group.
func NewAbort() engine.BindingGroup { return &abortGroup{} }

func (g *abortGroup) Name() string { return "abort" }

func (g *abortGroup) Register(rt *engine.Runtime) error {
	_, err := rt.Ctx.RunScript(abortJS, "abort.js")
	return err
}

const abortJS = `
(function() {

class Event {
	constructor(type, options) {
		this.type = type;
		this.bubbles = !!(options && options.bubbles);
		this.cancelable = !!(options && options.cancelable);
		this.defaultPrevented = false;
		this.target = null;
		this.currentTarget = null;
		this.timeStamp = performance.now();
	}
	preventDefault() {
		if (this.cancelable) this.defaultPrevented = true;
	}
	stopPropagation() {}
	stopImmediatePropagation() {}
}

class EventTarget {
	constructor() {
		this._listeners = {};
	}
	addEventListener(type, callback, options) {
		if (typeof callback !== 'function') return;
		if (!this._listeners[type]) this._listeners[type] = [];
		const once = options && options.once;
		this._listeners[type].push({ callback, once });
	}
	removeEventListener(type, callback) {
		if (!this._listeners[type]) return;
		this._listeners[type] = this._listeners[type].filter((l) => l.callback !== callback);
	}
	dispatchEvent(event) {
		event.target = this;
		event.currentTarget = this;
		const listeners = this._listeners[event.type];
		if (!listeners) return true;
		const copy = listeners.slice();
		for (const entry of copy) {
			entry.callback.call(this, event);
			if (entry.once) this.removeEventListener(event.type, entry.callback);
		}
		return !event.defaultPrevented;
	}
}

globalThis.DOMException = class DOMException extends Error {
	constructor(message, name) {
		super(message);
		this.name = name || 'Error';
		this.code = 0;
	}
};

class AbortSignal extends EventTarget {
	constructor() {
		super();
		this.aborted = false;
		this.reason = undefined;
	}
	throwIfAborted() {
		if (this.aborted) throw this.reason;
	}
	static abort(reason) {
		const signal = new AbortSignal();
		signal.aborted = true;
		signal.reason = reason !== undefined ? reason : new DOMException('signal is aborted without reason', 'AbortError');
		return signal;
	}
	static timeout(ms) {
		const signal = new AbortSignal();
		setTimeout(() => {
			if (!signal.aborted) {
				signal.aborted = true;
				signal.reason = new DOMException('signal timed out', 'TimeoutError');
				signal.dispatchEvent(new Event('abort'));
			}
		}, ms);
		return signal;
	}
	static any(signals) {
		if (!Array.isArray(signals)) signals = Array.from(signals);
		const controller = new AbortController();
		for (const s of signals) {
			if (s.aborted) {
				controller.abort(s.reason);
				return controller.signal;
			}
		}
		function onAbort(ev) {
			controller.abort(ev.target.reason);
			for (const s of signals) s.removeEventListener('abort', onAbort);
		}
		for (const s of signals) s.addEventListener('abort', onAbort);
		return controller.signal;
	}
}

class AbortController {
	constructor() {
		this.signal = new AbortSignal();
	}
	abort(reason) {
		if (this.signal.aborted) return;
		this.signal.aborted = true;
		this.signal.reason = reason !== undefined ? reason : new DOMException('signal is aborted without reason', 'AbortError');
		this.signal.dispatchEvent(new Event('abort'));
	}
}

class CustomEvent extends Event {
	constructor(type, options) {
		super(type, options);
		this.detail = options && options.detail !== undefined ? options.detail : null;
	}
}

globalThis.Event = Event;
globalThis.EventTarget = EventTarget;
globalThis.AbortSignal = AbortSignal;
globalThis.AbortController = AbortController;
globalThis.CustomEvent = CustomEvent;

})();
`
