package builtins

import (
	"fmt"
	"io"
	"sync"

	"github.com/jstime-go/jstime/internal/engine"
)

// consoleGroup implements the `console` global: WHATWG Console Standard
// format directives (%s %d %i %f %o %O %j %c %%), writing log/info/debug to
// Stdout and warn/error to Stderr, plus the grouping/counting/timing/
// assertion method family. Grounded on the teacher's internal/webapi/
// console.go (the __console native binding + JS method table) but with the
// format-directive substitution rewritten for spec fidelity — the teacher's
// version joins String(arg) with spaces and never substitutes directives at
// all.
type consoleGroup struct {
	Stdout io.Writer
	Stderr io.Writer

	mu sync.Mutex
}

// NewConsole returns a console builtin group writing to the given streams.
func NewConsole(stdout, stderr io.Writer) engine.BindingGroup {
	return &consoleGroup{Stdout: stdout, Stderr: stderr}
}

func (c *consoleGroup) Name() string { return "console" }

func (c *consoleGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__consoleWrite", func(stream, text string) {
		c.write(stream, text)
	}); err != nil {
		return err
	}
	_, err := rt.Ctx.RunScript(consoleJS, "console.js")
	return err
}

// write serializes output across stdout/stderr so interleaved log/warn calls
// from the same turn never tear mid-line. Group-depth indentation is applied
// JS-side (consoleJS's withIndent) before text ever reaches here.
func (c *consoleGroup) write(stream, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.Stdout
	if stream == "stderr" {
		w = c.Stderr
	}
	fmt.Fprintln(w, text)
}

// consoleJS implements format-directive substitution (util.format-style) in
// JS, where typeof-based argument inspection is natural, then hands the
// final line to the Go-backed __consoleWrite for actual output. %s, %d/%i,
// %f, %o/%O, %j, %c, and %% are recognized; an unmatched directive is left
// verbatim in the output, and excess arguments beyond the directives present
// are appended space-separated, matching Node's util.format.
const consoleJS = `
(function() {

function inspect(v, depth) {
	if (v === null) return 'null';
	if (v === undefined) return 'undefined';
	const t = typeof v;
	if (t === 'string') return depth === 0 ? v : JSON.stringify(v);
	if (t === 'number' || t === 'boolean' || t === 'bigint' || t === 'symbol' || t === 'function') return String(v);
	if (v instanceof Error) return v.stack || (v.name + ': ' + v.message);
	if (Array.isArray(v)) return '[ ' + v.map((x) => inspect(x, depth + 1)).join(', ') + ' ]';
	try {
		const keys = Object.keys(v);
		if (keys.length === 0) return '{}';
		return '{ ' + keys.map((k) => k + ': ' + inspect(v[k], depth + 1)).join(', ') + ' }';
	} catch (e) {
		return String(v);
	}
}

function format(args) {
	if (args.length === 0) return '';
	let out = '';
	let argIdx = 1;
	if (typeof args[0] === 'string' && args[0].indexOf('%') !== -1) {
		const fmtStr = args[0];
		for (let i = 0; i < fmtStr.length; i++) {
			const ch = fmtStr[i];
			if (ch === '%' && i + 1 < fmtStr.length) {
				const d = fmtStr[i + 1];
				if (d === '%') { out += '%'; i++; continue; }
				if ('sdifoOjc'.indexOf(d) !== -1) {
					if (d === 'c') { argIdx++; i++; continue; } // %c: consume arg, emit nothing (no CSS styling)
					if (argIdx >= args.length) { out += '%' + d; i++; continue; }
					const arg = args[argIdx++];
					i++;
					switch (d) {
						case 's': out += typeof arg === 'string' ? arg : inspect(arg, 0); break;
						case 'd': case 'i': out += Number.isNaN(Number(arg)) ? 'NaN' : String(Math.trunc(Number(arg))); break;
						case 'f': out += String(Number(arg)); break;
						case 'o': case 'O': out += inspect(arg, 0); break;
						case 'j': try { out += JSON.stringify(arg); } catch (e) { out += 'undefined'; } break;
					}
					continue;
				}
			}
			out += ch;
		}
	} else {
		out += inspect(args[0], 0);
		argIdx = 1;
	}
	for (; argIdx < args.length; argIdx++) {
		out += ' ' + inspect(args[argIdx], 0);
	}
	return out;
}

const counts = new Map();
const timers = new Map();
let groupDepth = 0;

function withIndent(s) {
	return '  '.repeat(groupDepth) + s;
}

function emit(stream, args) {
	__consoleWrite(stream, withIndent(format(args)));
}

const con = {};
con.log = function() { emit('stdout', Array.prototype.slice.call(arguments)); };
con.info = con.log;
con.debug = con.log;
con.warn = function() { emit('stderr', Array.prototype.slice.call(arguments)); };
con.error = con.warn;
con.trace = function() {
	const args = Array.prototype.slice.call(arguments);
	const e = new Error();
	emit('stderr', ['Trace:'].concat(args).concat([e.stack || '']));
};
con.dir = function(obj) { emit('stdout', [inspect(obj, 0)]); };
con.dirxml = con.dir;
con.table = function(data) { emit('stdout', [inspect(data, 0)]); };
con.assert = function(cond) {
	if (cond) return;
	const args = Array.prototype.slice.call(arguments).slice(1);
	emit('stderr', ['Assertion failed:'].concat(args.length ? args : ['']));
};
con.count = function(label) {
	label = label === undefined ? 'default' : String(label);
	const n = (counts.get(label) || 0) + 1;
	counts.set(label, n);
	emit('stdout', [label + ': ' + n]);
};
con.countReset = function(label) {
	label = label === undefined ? 'default' : String(label);
	counts.set(label, 0);
};
con.group = function() {
	if (arguments.length) emit('stdout', Array.prototype.slice.call(arguments));
	groupDepth++;
};
con.groupCollapsed = con.group;
con.groupEnd = function() { if (groupDepth > 0) groupDepth--; };
con.time = function(label) {
	label = label === undefined ? 'default' : String(label);
	timers.set(label, performance.now());
};
con.timeLog = function(label) {
	label = label === undefined ? 'default' : String(label);
	const start = timers.get(label);
	if (start === undefined) { emit('stderr', ["Timer '" + label + "' does not exist"]); return; }
	emit('stdout', [label + ': ' + (performance.now() - start).toFixed(3) + 'ms']);
};
con.timeEnd = function(label) {
	label = label === undefined ? 'default' : String(label);
	con.timeLog(label);
	timers.delete(label);
};
con.timeStamp = function() {};
con.profile = function() {};
con.profileEnd = function() {};
con.context = function() { return con; };
con.memory = {};
con.clear = function() {};

globalThis.console = con;

})();
`
