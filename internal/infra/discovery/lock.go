package discovery

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// MulticastLock is a reference-counted claim on multicast reception.
// The acquire hook runs when the count goes from zero to one and the
// release hook when it drops back to zero.
type MulticastLock struct {
	mu        sync.Mutex
	name      string
	count     int
	onAcquire func()
	onRelease func()
}

// NewMulticastLock creates an unheld lock.
func NewMulticastLock(name string) *MulticastLock {
	return &MulticastLock{name: name}
}

// OnTransition sets the hooks run on first acquire and last release.
func (l *MulticastLock) OnTransition(acquire, release func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onAcquire = acquire
	l.onRelease = release
}

// Acquire takes one reference.
func (l *MulticastLock) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.count == 1 {
		log.Debug().Str("lock", l.name).Msg("Acquiring multicast lock")
		if l.onAcquire != nil {
			l.onAcquire()
		}
	}
}

// Release drops one reference. Releasing an unheld lock does nothing.
func (l *MulticastLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 {
		log.Debug().Str("lock", l.name).Msg("Releasing multicast lock")
		if l.onRelease != nil {
			l.onRelease()
		}
	}
}

// Held reports whether any reference is outstanding.
func (l *MulticastLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count > 0
}

// Scoped holds the lock for the duration of fn.
func (l *MulticastLock) Scoped(fn func() error) error {
	l.Acquire()
	defer l.Release()
	return fn()
}
