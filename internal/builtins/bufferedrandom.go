// Package builtins implements the runtime's built-in JS surface: one Go file
// per group owning both the native bindings and the JS wrapper text that
// presents them as console, timers, crypto, fetch, URL, and the rest of the
// minimum Web/Node-compatible surface. Grounded file-for-file on the
// teacher's internal/webapi/*.go.
package builtins

import (
	"crypto/rand"
	"fmt"
	"sync"
)

const bufferedRandomSize = 8192

// BufferedRandom serves crypto.getRandomValues() out of a refillable buffer
// instead of hitting the OS CSRNG on every call. Ported 1:1 from
// _examples/original_source/core/src/buffered_random.rs: requests at least
// as large as the buffer bypass it entirely (refilling a buffer just to
// immediately drain it again wastes a syscall's worth of randomness), and
// smaller requests are served from the buffer, refilling once it is
// exhausted.
type BufferedRandom struct {
	mu        sync.Mutex
	buf       [bufferedRandomSize]byte
	position  int
	available int
}

// NewBufferedRandom returns an empty buffer; the first small Fill call
// triggers the initial refill.
func NewBufferedRandom() *BufferedRandom {
	return &BufferedRandom{}
}

// Fill writes len(dest) cryptographically random bytes into dest.
func (b *BufferedRandom) Fill(dest []byte) error {
	if len(dest) >= bufferedRandomSize {
		_, err := rand.Read(dest)
		if err != nil {
			return fmt.Errorf("buffered random: bypass fill: %w", err)
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	filled := 0
	for filled < len(dest) {
		if b.available == 0 {
			if err := b.refillLocked(); err != nil {
				return err
			}
		}
		n := copy(dest[filled:], b.buf[b.position:b.position+b.available])
		b.position += n
		b.available -= n
		filled += n
	}
	return nil
}

func (b *BufferedRandom) refillLocked() error {
	if _, err := rand.Read(b.buf[:]); err != nil {
		return fmt.Errorf("buffered random: refill: %w", err)
	}
	b.position = 0
	b.available = bufferedRandomSize
	return nil
}
