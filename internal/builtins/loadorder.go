package builtins

import (
	"io"
	"time"

	"github.com/jstime-go/jstime/internal/engine"
)

// LoadOrder returns every builtin group in the fixed order the runtime
// facade and the snapshot producer both register them in. Order matters:
// abort's EventTarget/Event must exist before unhandledrejection and events
// depend on them, and globals' queueMicrotask must exist before
// unhandledrejection schedules one. Grounded on the teacher's root
// runtime.go registration sequence, generalized from its fixed
// console/crypto/timers/webapi list to this spec's full component set.
func LoadOrder(stdout, stderr io.Writer, start time.Time, random *BufferedRandom) []engine.BindingGroup {
	return []engine.BindingGroup{
		NewGlobals(start),
		NewConsole(stdout, stderr),
		NewEncoding(),
		NewAbort(),
		NewWebAPI(),
		NewUnhandledRejection(),
		NewTimers(),
		NewCrypto(random),
		NewFetch(),
		NewProcess(),
		NewEvents(),
		NewTemporal(),
	}
}
