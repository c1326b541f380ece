package builtins

import (
	"os"

	"github.com/jstime-go/jstime/internal/engine"
)

// processGroup installs a Node-compatible process object exposing env,
// argv, cwd(), and exit(). Grounded on the original jstime implementation's
// builtins/node/process_impl.rs (get_env/get_argv/get_cwd/exit bindings),
// reworked from v8's native FunctionTemplate bindings into this runtime's
// RegisterFunc bridge.
type processGroup struct{}

// NewProcess returns the process builtin group.
func NewProcess() engine.BindingGroup { return &processGroup{} }

func (g *processGroup) Name() string { return "process" }

func (g *processGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__processGetEnv", func() string {
		return envJSON()
	}); err != nil {
		return err
	}
	if err := engine.RegisterFunc(rt, "__processGetArgv", func() string {
		return argvJSON(rt.State.ProcessArgv)
	}); err != nil {
		return err
	}
	if err := engine.RegisterFunc(rt, "__processGetCwd", func() (string, error) {
		return os.Getwd()
	}); err != nil {
		return err
	}
	if err := engine.RegisterFunc(rt, "__processExit", func(code int) {
		os.Exit(code)
	}); err != nil {
		return err
	}
	_, err := rt.Ctx.RunScript(processJS, "process.js")
	return err
}

func envJSON() string {
	var b []byte
	b = append(b, '{')
	first := true
	for _, kv := range os.Environ() {
		key, val := splitEnv(kv)
		if !first {
			b = append(b, ',')
		}
		first = false
		b = append(b, jsonQuote(key)...)
		b = append(b, ':')
		b = append(b, jsonQuote(val)...)
	}
	b = append(b, '}')
	return string(b)
}

func argvJSON(argv []string) string {
	b := []byte{'['}
	for i, a := range argv {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, jsonQuote(a)...)
	}
	b = append(b, ']')
	return string(b)
}

func splitEnv(kv string) (string, string) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:]
		}
	}
	return kv, ""
}

func jsonQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			if r < 0x20 {
				out = append(out, '\\', 'u', '0', '0', hexDigit(byte(r)>>4), hexDigit(byte(r)&0xf))
			} else {
				out = append(out, string(r)...)
			}
		}
	}
	out = append(out, '"')
	return string(out)
}

func hexDigit(b byte) byte {
	if b < 10 {
		return '0' + b
	}
	return 'a' + (b - 10)
}

const processJS = `
(function() {

globalThis.process = {
	get env() {
		return JSON.parse(__processGetEnv());
	},
	get argv() {
		return JSON.parse(__processGetArgv());
	},
	cwd() {
		return __processGetCwd();
	},
	exit(code) {
		__processExit(code === undefined ? 0 : code);
	},
	platform: 'linux',
	version: 'v1.0.0',
};

})();
`
