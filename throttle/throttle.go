package throttle

import (
	"errors"
	"sync"
	"time"
)

// Common errors.
var (
	ErrClosed          = errors.New("throttler closed")
	ErrInvalidInterval = errors.New("invalid interval")
)

// Operation produces a value or fails. It runs outside the throttler's
// lock, so it may block without stalling other keys.
type Operation[V any] func() (V, error)

// Throttler suppresses executions of a keyed operation that arrive more
// often than a minimum interval. It is safe for concurrent use.
type Throttler[V any] struct {
	mu      sync.Mutex
	last    map[string]time.Time
	closed  bool
	nowFunc func() time.Time // for testing
}

// New creates a new throttler.
func New[V any]() *Throttler[V] {
	return &Throttler[V]{
		last:    make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

// Do executes op if at least interval has elapsed since the last permitted
// execution for key. The bool reports whether op ran: (zero, false, nil)
// means the call was suppressed, which is a normal outcome, not a failure.
//
// On the first call for a key, op runs immediately when allowFirst is
// true; otherwise the current time is recorded without executing, which
// primes the window so later calls inside interval are suppressed.
//
// The window is reserved before op runs, so of two concurrent eligible
// calls exactly one executes; the timestamp is updated again to the
// completion time once op returns.
func (t *Throttler[V]) Do(key string, interval time.Duration, allowFirst bool, op Operation[V]) (V, bool, error) {
	var zero V
	if interval <= 0 {
		return zero, false, ErrInvalidInterval
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return zero, false, ErrClosed
	}

	now := t.nowFunc()
	last, seen := t.last[key]
	if seen && now.Sub(last) < interval {
		t.mu.Unlock()
		return zero, false, nil
	}
	if !seen && !allowFirst {
		t.last[key] = now
		t.mu.Unlock()
		return zero, false, nil
	}

	// Reserve the window so a concurrent call cannot also execute.
	t.last[key] = now
	t.mu.Unlock()

	v, err := op()

	t.mu.Lock()
	// Record completion time unless the key was reset or re-stamped
	// while op was running.
	if cur, ok := t.last[key]; ok && cur.Equal(now) && !t.closed {
		t.last[key] = t.nowFunc()
	}
	t.mu.Unlock()

	return v, true, err
}

// Reset clears the recorded timestamp for key, re-enabling immediate
// execution.
func (t *Throttler[V]) Reset(key string) {
	t.mu.Lock()
	delete(t.last, key)
	t.mu.Unlock()
}

// ResetAll clears all recorded timestamps.
func (t *Throttler[V]) ResetAll() {
	t.mu.Lock()
	t.last = make(map[string]time.Time)
	t.mu.Unlock()
}

// Last returns the recorded timestamp for key and whether one exists.
func (t *Throttler[V]) Last(key string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.last[key]
	return ts, ok
}

// Close shuts down the throttler. Subsequent Do calls return ErrClosed.
func (t *Throttler[V]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	t.closed = true
	t.last = nil
	return nil
}
