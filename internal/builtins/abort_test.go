package builtins

import "testing"

func TestAbortController_AbortSetsReasonAndFiresEvent(t *testing.T) {
	rt := newTestRuntime(t)
	ok := evalBool(t, rt, `
		const controller = new AbortController();
		let fired = false;
		controller.signal.addEventListener('abort', () => { fired = true; });
		controller.abort('custom reason');
		fired && controller.signal.aborted && controller.signal.reason === 'custom reason';
	`)
	if !ok {
		t.Error("expected AbortController.abort to set aborted, reason, and dispatch 'abort'")
	}
}

func TestAbortSignal_AbortStaticCreatesPreAbortedSignal(t *testing.T) {
	rt := newTestRuntime(t)
	ok := evalBool(t, rt, `
		const signal = AbortSignal.abort();
		signal.aborted === true && signal.reason instanceof DOMException;
	`)
	if !ok {
		t.Error("expected AbortSignal.abort() to return an already-aborted signal")
	}
}

func TestEventTarget_RemoveEventListenerStopsDelivery(t *testing.T) {
	rt := newTestRuntime(t)
	count := evalString(t, rt, `
		const et = new EventTarget();
		let count = 0;
		const listener = () => { count++; };
		et.addEventListener('ping', listener);
		et.dispatchEvent(new Event('ping'));
		et.removeEventListener('ping', listener);
		et.dispatchEvent(new Event('ping'));
		String(count);
	`)
	if count != "1" {
		t.Errorf("expected exactly 1 delivery before removal, got %s", count)
	}
}

func TestEvent_PreventDefaultOnlyWorksWhenCancelable(t *testing.T) {
	rt := newTestRuntime(t)
	ok := evalBool(t, rt, `
		const e1 = new Event('x', { cancelable: true });
		e1.preventDefault();
		const e2 = new Event('y', { cancelable: false });
		e2.preventDefault();
		e1.defaultPrevented === true && e2.defaultPrevented === false;
	`)
	if !ok {
		t.Error("expected preventDefault to be a no-op on a non-cancelable event")
	}
}

func TestCustomEvent_CarriesDetail(t *testing.T) {
	rt := newTestRuntime(t)
	got := evalString(t, rt, `new CustomEvent('greet', { detail: { name: 'world' } }).detail.name`)
	if got != "world" {
		t.Errorf("CustomEvent.detail.name = %q, want %q", got, "world")
	}
}
