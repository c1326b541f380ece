package builtins

import (
	"fmt"
	"time"

	"github.com/jstime-go/jstime/internal/engine"
)

// temporalGroup installs a subset of the TC39 Temporal proposal: Instant,
// PlainDate, PlainTime, PlainDateTime, and Temporal.Now. Grounded on the
// original jstime implementation's tests/test_temporal.rs expectations
// (typeof checks plus year/month/day/hour/minute/second field access) —
// there is no Rust-side temporal_impl.rs to port logic from, so the
// calendar math here is written fresh in the teacher's JS-polyfill style,
// the way abort.go and timers.go wrap a thin Go binding in a JS class.
//
// Instant carries nanosecond epoch precision as a BigInt, since a JS double
// cannot represent epoch nanoseconds exactly; __temporalNowEpochNanos
// returns the Go wall clock's nanosecond count as a decimal string for the
// JS side to wrap in BigInt(...).
type temporalGroup struct{}

// NewTemporal returns the Temporal builtin group.
func NewTemporal() engine.BindingGroup { return &temporalGroup{} }

func (g *temporalGroup) Name() string { return "temporal" }

func (g *temporalGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__temporalNowEpochNanos", func() string {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}); err != nil {
		return err
	}
	_, err := rt.Ctx.RunScript(temporalJS, "temporal.js")
	return err
}

const temporalJS = `
(function() {

function pad(n, width) {
	const s = String(Math.abs(n));
	const sign = n < 0 ? '-' : '';
	return sign + '0'.repeat(Math.max(0, width - s.length)) + s;
}

function daysInMonth(year, month) {
	const leap = (year % 4 === 0 && year % 100 !== 0) || year % 400 === 0;
	const lengths = [31, leap ? 29 : 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31];
	return lengths[month - 1];
}

function assertRange(name, value, min, max) {
	if (!Number.isInteger(value) || value < min || value > max) {
		throw new RangeError(name + ' must be an integer between ' + min + ' and ' + max + ', got ' + value);
	}
}

class PlainTime {
	constructor(hour = 0, minute = 0, second = 0, millisecond = 0, microsecond = 0, nanosecond = 0) {
		assertRange('hour', hour, 0, 23);
		assertRange('minute', minute, 0, 59);
		assertRange('second', second, 0, 59);
		assertRange('millisecond', millisecond, 0, 999);
		assertRange('microsecond', microsecond, 0, 999);
		assertRange('nanosecond', nanosecond, 0, 999);
		this.hour = hour;
		this.minute = minute;
		this.second = second;
		this.millisecond = millisecond;
		this.microsecond = microsecond;
		this.nanosecond = nanosecond;
		Object.freeze(this);
	}
	toString() {
		return pad(this.hour, 2) + ':' + pad(this.minute, 2) + ':' + pad(this.second, 2);
	}
}

class PlainDate {
	constructor(year, month, day) {
		assertRange('month', month, 1, 12);
		assertRange('day', day, 1, daysInMonth(year, month));
		this.year = year;
		this.month = month;
		this.day = day;
		Object.freeze(this);
	}
	get dayOfWeek() {
		const d = new Date(Date.UTC(this.year, this.month - 1, this.day));
		const js = d.getUTCDay();
		return js === 0 ? 7 : js;
	}
	toString() {
		return pad(this.year, 4) + '-' + pad(this.month, 2) + '-' + pad(this.day, 2);
	}
	static from(spec) {
		if (spec instanceof PlainDate) return spec;
		if (typeof spec === 'string') {
			const m = /^(-?\d{4,})-(\d{2})-(\d{2})/.exec(spec);
			if (!m) throw new RangeError('invalid PlainDate string: ' + spec);
			return new PlainDate(Number(m[1]), Number(m[2]), Number(m[3]));
		}
		if (spec && typeof spec === 'object') {
			return new PlainDate(spec.year, spec.month, spec.day);
		}
		throw new TypeError('cannot construct PlainDate from ' + String(spec));
	}
}

class PlainDateTime {
	constructor(year, month, day, hour = 0, minute = 0, second = 0, millisecond = 0, microsecond = 0, nanosecond = 0) {
		const date = new PlainDate(year, month, day);
		const time = new PlainTime(hour, minute, second, millisecond, microsecond, nanosecond);
		this.year = date.year;
		this.month = date.month;
		this.day = date.day;
		this.hour = time.hour;
		this.minute = time.minute;
		this.second = time.second;
		this.millisecond = time.millisecond;
		this.microsecond = time.microsecond;
		this.nanosecond = time.nanosecond;
		Object.freeze(this);
	}
	toPlainDate() {
		return new PlainDate(this.year, this.month, this.day);
	}
	toPlainTime() {
		return new PlainTime(this.hour, this.minute, this.second, this.millisecond, this.microsecond, this.nanosecond);
	}
	toString() {
		return this.toPlainDate().toString() + 'T' + this.toPlainTime().toString();
	}
}

class Duration {
	constructor(years = 0, months = 0, weeks = 0, days = 0, hours = 0, minutes = 0, seconds = 0, milliseconds = 0, microseconds = 0, nanoseconds = 0) {
		this.years = years;
		this.months = months;
		this.weeks = weeks;
		this.days = days;
		this.hours = hours;
		this.minutes = minutes;
		this.seconds = seconds;
		this.milliseconds = milliseconds;
		this.microseconds = microseconds;
		this.nanoseconds = nanoseconds;
		Object.freeze(this);
	}
}

const NANOS_PER_MS = 1000000n;

class Instant {
	constructor(epochNanoseconds) {
		if (typeof epochNanoseconds !== 'bigint') {
			throw new TypeError('Instant must be constructed from a BigInt of epoch nanoseconds');
		}
		this.epochNanoseconds = epochNanoseconds;
	}
	get epochMilliseconds() {
		return Number(this.epochNanoseconds / NANOS_PER_MS);
	}
	toString() {
		return new Date(this.epochMilliseconds).toISOString();
	}
	static from(spec) {
		if (spec instanceof Instant) return spec;
		if (typeof spec === 'string') {
			const ms = Date.parse(spec);
			if (Number.isNaN(ms)) throw new RangeError('invalid instant string: ' + spec);
			return new Instant(BigInt(ms) * NANOS_PER_MS);
		}
		throw new TypeError('cannot construct Instant from ' + String(spec));
	}
}

const Now = {
	instant() {
		return new Instant(BigInt(__temporalNowEpochNanos()));
	},
	plainDateISO() {
		const d = new Date(this.instant().epochMilliseconds);
		return new PlainDate(d.getUTCFullYear(), d.getUTCMonth() + 1, d.getUTCDate());
	},
	plainTimeISO() {
		const d = new Date(this.instant().epochMilliseconds);
		return new PlainTime(d.getUTCHours(), d.getUTCMinutes(), d.getUTCSeconds(), d.getUTCMilliseconds());
	},
	plainDateTimeISO() {
		const d = new Date(this.instant().epochMilliseconds);
		return new PlainDateTime(
			d.getUTCFullYear(), d.getUTCMonth() + 1, d.getUTCDate(),
			d.getUTCHours(), d.getUTCMinutes(), d.getUTCSeconds(), d.getUTCMilliseconds()
		);
	},
};

globalThis.Temporal = {
	Now,
	Instant,
	PlainDate,
	PlainTime,
	PlainDateTime,
	Duration,
};

})();
`
