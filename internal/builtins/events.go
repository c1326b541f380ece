package builtins

import "github.com/jstime-go/jstime/internal/engine"

// eventsGroup installs a Node-compatible EventEmitter as a pure JS
// polyfill — no native bindings, matching the original jstime
// implementation's builtins/node/events_impl.rs, which registers zero
// external references because its EventEmitter is implemented entirely in
// JavaScript. EventEmitter keeps its own listener table; it does not use
// abortGroup's EventTarget or Event.
type eventsGroup struct{}

// NewEvents returns the events builtin group.
func NewEvents() engine.BindingGroup { return &eventsGroup{} }

func (g *eventsGroup) Name() string { return "events" }

func (g *eventsGroup) Register(rt *engine.Runtime) error {
	_, err := rt.Ctx.RunScript(eventsJS, "events.js")
	return err
}

const eventsJS = `
(function() {

const kMaxListeners = Symbol('maxListeners');

class EventEmitter {
	constructor() {
		this._events = Object.create(null);
		this[kMaxListeners] = 10;
	}

	static get defaultMaxListeners() {
		return 10;
	}

	_addListener(type, listener, prepend, once) {
		if (typeof listener !== 'function') {
			throw new TypeError('listener must be a function');
		}
		const wrapped = once ? this._onceWrap(type, listener) : listener;
		wrapped.__original = listener;
		if (!this._events[type]) this._events[type] = [];
		if (prepend) this._events[type].unshift(wrapped);
		else this._events[type].push(wrapped);
		this.emit('newListener', type, listener);
		return this;
	}

	_onceWrap(type, listener) {
		const self = this;
		let fired = false;
		function wrapper(...args) {
			if (fired) return;
			fired = true;
			self.removeListener(type, wrapper);
			listener.apply(self, args);
		}
		return wrapper;
	}

	on(type, listener) {
		return this._addListener(type, listener, false, false);
	}

	addListener(type, listener) {
		return this.on(type, listener);
	}

	prependListener(type, listener) {
		return this._addListener(type, listener, true, false);
	}

	once(type, listener) {
		return this._addListener(type, listener, false, true);
	}

	prependOnceListener(type, listener) {
		return this._addListener(type, listener, true, true);
	}

	removeListener(type, listener) {
		const list = this._events[type];
		if (!list) return this;
		const idx = list.findIndex((l) => l === listener || l.__original === listener);
		if (idx !== -1) {
			list.splice(idx, 1);
			if (list.length === 0) delete this._events[type];
			this.emit('removeListener', type, listener);
		}
		return this;
	}

	off(type, listener) {
		return this.removeListener(type, listener);
	}

	removeAllListeners(type) {
		if (type === undefined) {
			this._events = Object.create(null);
		} else {
			delete this._events[type];
		}
		return this;
	}

	listeners(type) {
		const list = this._events[type];
		if (!list) return [];
		return list.map((l) => l.__original || l);
	}

	listenerCount(type) {
		const list = this._events[type];
		return list ? list.length : 0;
	}

	eventNames() {
		return Object.keys(this._events);
	}

	setMaxListeners(n) {
		this[kMaxListeners] = n;
		return this;
	}

	getMaxListeners() {
		return this[kMaxListeners];
	}

	emit(type, ...args) {
		const list = this._events[type];
		if (!list || list.length === 0) {
			if (type === 'error') {
				const err = args[0];
				throw err instanceof Error ? err : new Error('Unhandled error: ' + String(err));
			}
			return false;
		}
		const copy = list.slice();
		for (const listener of copy) {
			listener.apply(this, args);
		}
		return true;
	}
}

globalThis.EventEmitter = EventEmitter;
globalThis.__eventsModule = {
	EventEmitter,
	default: EventEmitter,
};

})();
`
