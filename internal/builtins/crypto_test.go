package builtins

import "testing"

func TestCrypto_GetRandomValuesFillsInPlaceAndVaries(t *testing.T) {
	rt := newTestRuntime(t)
	same := evalBool(t, rt, `
		const a = crypto.getRandomValues(new Uint8Array(16));
		const b = crypto.getRandomValues(new Uint8Array(16));
		a.every((v, i) => v === b[i]);
	`)
	if same {
		t.Error("expected two successive getRandomValues calls to differ")
	}
	returnsArg := evalBool(t, rt, `
		const arr = new Uint8Array(4);
		crypto.getRandomValues(arr) === arr;
	`)
	if !returnsArg {
		t.Error("expected getRandomValues to return the same typed array it was given")
	}
}

func TestCrypto_RandomUUIDIsV4(t *testing.T) {
	rt := newTestRuntime(t)
	ok := evalBool(t, rt, `
		const u = crypto.randomUUID();
		/^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$/.test(u);
	`)
	if !ok {
		t.Error("expected randomUUID to produce a version-4 variant-1 UUID")
	}
}

func TestCrypto_DigestSHA256OfEmptyString(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.Ctx.RunScript(`
		crypto.subtle.digest('SHA-256', new TextEncoder().encode('')).then((digest) => {
			globalThis.__digest = Array.from(new Uint8Array(digest))
				.map((b) => b.toString(16).padStart(2, '0')).join('');
		});
	`, "<test>"); err != nil {
		t.Fatalf("running digest script: %v", err)
	}

	for i := 0; i < 10; i++ {
		rt.Ctx.PerformMicrotaskCheckpoint()
	}

	digest := evalString(t, rt, `globalThis.__digest || ''`)
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if digest != want {
		t.Errorf("SHA-256('') = %s, want %s", digest, want)
	}
}
