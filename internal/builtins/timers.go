package builtins

import (
	"time"

	"github.com/jstime-go/jstime/internal/engine"
)

// timersGroup installs setTimeout/setInterval/clearTimeout/clearInterval,
// storing each callback on globalThis.__timerCallbacks[id] so the Go side
// never has to hold a V8 function handle across an event loop turn.
// Grounded on the teacher's internal/webapi/timers.go.
type timersGroup struct{}

// NewTimers returns the timers builtin group.
func NewTimers() engine.BindingGroup { return &timersGroup{} }

func (g *timersGroup) Name() string { return "timers" }

func (g *timersGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__timerRegister", func(delayMs float64, repeating bool) int {
		if delayMs < 0 {
			delayMs = 0
		}
		interval := time.Duration(delayMs) * time.Millisecond
		if repeating && interval < 4*time.Millisecond {
			// WHATWG HTML clamps nested/repeating timers to a 4ms floor.
			interval = 4 * time.Millisecond
		}
		return rt.State.QueueTimer(interval, repeating)
	}); err != nil {
		return err
	}
	if err := engine.RegisterFunc(rt, "__timerClear", func(id int) {
		rt.State.QueueClearTimer(id)
	}); err != nil {
		return err
	}
	_, err := rt.Ctx.RunScript(timersJS, "timers.js")
	return err
}

const timersJS = `
(function() {

globalThis.__timerCallbacks = globalThis.__timerCallbacks || {};

function makeTimer(repeating) {
	return function(callback, delay) {
		if (typeof callback !== 'function') {
			throw new TypeError('callback must be a function');
		}
		const extra = Array.prototype.slice.call(arguments, 2);
		const id = __timerRegister(delay || 0, repeating);
		globalThis.__timerCallbacks[id] = {
			fn: function() { callback.apply(null, extra); },
			repeating: repeating,
		};
		return id;
	};
}

globalThis.setTimeout = makeTimer(false);
globalThis.setInterval = makeTimer(true);

function clearTimer(id) {
	if (id === undefined || id === null) return;
	delete globalThis.__timerCallbacks[id];
	__timerClear(id);
}
globalThis.clearTimeout = clearTimer;
globalThis.clearInterval = clearTimer;

globalThis.__timerFire = function(id) {
	const entry = globalThis.__timerCallbacks[id];
	if (!entry) return;
	if (!entry.repeating) delete globalThis.__timerCallbacks[id];
	entry.fn();
};

})();
`
