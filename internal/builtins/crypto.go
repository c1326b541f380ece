package builtins

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/jstime-go/jstime/internal/engine"
)

// cryptoGroup installs crypto.getRandomValues, crypto.randomUUID, and
// crypto.subtle.digest. Grounded on the teacher's internal/webapi/crypto.go,
// narrowed to the digest-only subset of SubtleCrypto this spec calls for
// (no sign/verify/encrypt/decrypt/importKey/exportKey — those belong to the
// Workers-platform crypto surface the teacher's crypto_rsa.go/
// crypto_ecdh.go/crypto_ed25519.go/crypto_derive.go/crypto_kw.go implement,
// none of which this runtime's component table names).
//
// getRandomValues is backed by BufferedRandom (C2) rather than the teacher's
// unbuffered per-call crypto/rand.Read — a genuine behavioral addition,
// grounded on the Rust jstime original's buffered_random.rs, not on the
// teacher.
type cryptoGroup struct {
	random *BufferedRandom
}

// NewCrypto returns the crypto builtin group backed by random.
func NewCrypto(random *BufferedRandom) engine.BindingGroup {
	return &cryptoGroup{random: random}
}

func (g *cryptoGroup) Name() string { return "crypto" }

func (g *cryptoGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__cryptoGetRandomBytes", func(n int) (string, error) {
		if n < 0 || n > 65536 {
			return "", fmt.Errorf("requested length %d exceeds the allowed 0-65536 range", n)
		}
		buf := make([]byte, n)
		if err := g.random.Fill(buf); err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(buf), nil
	}); err != nil {
		return err
	}
	if err := engine.RegisterFunc(rt, "__cryptoRandomUUID", func() string {
		return uuid.New().String()
	}); err != nil {
		return err
	}
	if err := engine.RegisterFunc(rt, "__cryptoDigest", func(algo, dataB64 string) (string, error) {
		data, err := base64.StdEncoding.DecodeString(dataB64)
		if err != nil {
			return "", fmt.Errorf("invalid base64 input: %w", err)
		}
		h, err := hashForAlgo(algo)
		if err != nil {
			return "", err
		}
		h.Write(data)
		return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
	}); err != nil {
		return err
	}
	_, err := rt.Ctx.RunScript(cryptoJS, "crypto.js")
	return err
}

func hashForAlgo(algo string) (hash.Hash, error) {
	switch normalizeAlgo(algo) {
	case "sha-1":
		return sha1.New(), nil
	case "sha-256":
		return sha256.New(), nil
	case "sha-384":
		return sha512.New384(), nil
	case "sha-512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", algo)
	}
}

func normalizeAlgo(algo string) string {
	return strings.ToLower(strings.TrimSpace(algo))
}

const cryptoJS = `
(function() {

function b64ToBuffer(b64) {
	const bin = atob(b64);
	const bytes = new Uint8Array(bin.length);
	for (let i = 0; i < bin.length; i++) bytes[i] = bin.charCodeAt(i);
	return bytes.buffer;
}

function bufferSourceToB64(data) {
	let bytes;
	if (data instanceof ArrayBuffer) bytes = new Uint8Array(data);
	else if (ArrayBuffer.isView(data)) bytes = new Uint8Array(data.buffer, data.byteOffset, data.byteLength);
	else throw new TypeError('expected a BufferSource');
	let bin = '';
	const CHUNK = 4096;
	for (let i = 0; i < bytes.length; i += CHUNK) {
		bin += String.fromCharCode.apply(null, bytes.subarray(i, Math.min(i + CHUNK, bytes.length)));
	}
	return btoa(bin);
}

const subtle = {
	digest(algorithm, data) {
		const name = typeof algorithm === 'string' ? algorithm : algorithm.name;
		return Promise.resolve().then(() => b64ToBuffer(__cryptoDigest(name, bufferSourceToB64(data))));
	},
};

globalThis.crypto = {
	getRandomValues(typedArray) {
		if (!ArrayBuffer.isView(typedArray)) throw new TypeError('getRandomValues requires an integer-typed array');
		const bytes = new Uint8Array(typedArray.buffer, typedArray.byteOffset, typedArray.byteLength);
		const b64 = __cryptoGetRandomBytes(bytes.length);
		const bin = atob(b64);
		for (let i = 0; i < bin.length; i++) bytes[i] = bin.charCodeAt(i);
		return typedArray;
	},
	randomUUID() {
		return __cryptoRandomUUID();
	},
	subtle,
};

})();
`
