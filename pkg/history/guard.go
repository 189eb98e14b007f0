package history

import (
	"errors"
	"sync/atomic"
)

// ErrAlreadyBound is returned when a synchronizer is started after browser
// history is already bound to another consumer in this process.
var ErrAlreadyBound = errors.New("history: already bound to another consumer")

// Guard is a process-wide exclusive-access flag for browser history. The
// first synchronizer to acquire it owns the history for the rest of the
// process lifetime; there is no release. Two synchronizers fighting over
// the same history object would corrupt it, so every entry point must
// acquire the guard before touching the port.
type Guard struct {
	bound atomic.Bool
}

// TryAcquire attempts to take ownership. It returns true only for the call
// that flipped the flag; all later calls return false.
func (g *Guard) TryAcquire() bool {
	return g.bound.CompareAndSwap(false, true)
}

// Held reports whether the guard has been acquired.
func (g *Guard) Held() bool {
	return g.bound.Load()
}

// Reset releases the guard. Acquisition is permanent in production; Reset
// exists so tests can rebind per test case.
func (g *Guard) Reset() {
	g.bound.Store(false)
}

// DefaultGuard is the process-wide guard used when a synchronizer config
// does not supply its own.
var DefaultGuard = &Guard{}
