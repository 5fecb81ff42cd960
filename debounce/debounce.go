package debounce

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Close when the debouncer is already closed.
var ErrClosed = errors.New("debouncer closed")

// Debouncer delays execution of keyed operations, discarding any pending
// execution for a key when a newer one is scheduled. Only the most recent
// call within the delay window ever fires. It is safe for concurrent use.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*pendingCall
	closed  bool
}

type pendingCall struct {
	timer *time.Timer
}

// New creates a new debouncer.
func New() *Debouncer {
	return &Debouncer{
		pending: make(map[string]*pendingCall),
	}
}

// Schedule arranges for op to run after delay. Any not-yet-fired call
// previously scheduled for key is canceled first: the last scheduler
// wins. Scheduling is fire-and-forget; op runs on its own goroutine and
// delivers no result to the scheduler. Calls on a closed debouncer are
// ignored.
func (d *Debouncer) Schedule(key string, delay time.Duration, op func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	p := &pendingCall{}
	p.timer = time.AfterFunc(delay, func() {
		d.fire(key, p, op)
	})
	d.pending[key] = p
	d.mu.Unlock()
}

// fire runs op only if p is still the scheduled call for key. A timer
// whose Stop raced with its firing finds itself superseded here and does
// nothing.
func (d *Debouncer) fire(key string, p *pendingCall, op func()) {
	d.mu.Lock()
	if cur, ok := d.pending[key]; !ok || cur != p {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	op()
}

// Cancel discards the pending call for key, if any. A canceled call never
// executes.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
}

// CancelAll discards every pending call.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
}

// Pending returns the number of keys with a scheduled, not-yet-fired call.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close cancels all pending calls and ignores future Schedule calls.
func (d *Debouncer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.closed = true

	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
	return nil
}
