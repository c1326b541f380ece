package builtins

import "testing"

func TestTemporalPlainDate_ExposesYearMonthDay(t *testing.T) {
	rt := newTestRuntime(t)
	got := evalString(t, rt, `
		const d = new Temporal.PlainDate(2024, 3, 15);
		d.year + '-' + d.month + '-' + d.day;
	`)
	if got != "2024-3-15" {
		t.Errorf("PlainDate fields = %q, want %q", got, "2024-3-15")
	}
}

func TestTemporalPlainDate_RejectsOutOfRangeMonth(t *testing.T) {
	rt := newTestRuntime(t)
	ok := evalBool(t, rt, `
		let threw = false;
		try { new Temporal.PlainDate(2024, 13, 1); } catch (e) { threw = e instanceof RangeError; }
		threw;
	`)
	if !ok {
		t.Error("expected month 13 to throw a RangeError")
	}
}

func TestTemporalPlainTime_ExposesHourMinuteSecond(t *testing.T) {
	rt := newTestRuntime(t)
	got := evalString(t, rt, `
		const t = new Temporal.PlainTime(13, 45, 30);
		t.hour + ':' + t.minute + ':' + t.second;
	`)
	if got != "13:45:30" {
		t.Errorf("PlainTime fields = %q, want %q", got, "13:45:30")
	}
}

func TestTemporalNow_InstantIsPresentAndTyped(t *testing.T) {
	rt := newTestRuntime(t)
	got := evalString(t, rt, `typeof Temporal.Now.instant().epochNanoseconds`)
	if got != "bigint" {
		t.Errorf("Temporal.Now.instant().epochNanoseconds type = %q, want %q", got, "bigint")
	}
}
