package dedup

import (
	"context"
	"errors"
	"sync"
)

// Common errors.
var (
	ErrClosed   = errors.New("coordinator closed")
	ErrCanceled = errors.New("operation canceled")
)

// Operation computes the value for one flight. The context it receives is
// owned by the coordinator and is canceled only by Cancel, CancelAll or
// Close, never by an individual caller's context.
type Operation[V any] func(ctx context.Context) (V, error)

// Coordinator collapses concurrent calls that share a key into a single
// execution of the underlying operation. All callers waiting on the same
// key observe the identical value or error. It is safe for concurrent use.
type Coordinator[V any] struct {
	mu      sync.Mutex
	flights map[string]*flight[V]
	closed  bool
}

// flight is one in-progress operation and the waiters attached to it.
// val and err are written exactly once, before done is closed; reading
// them after <-done is race-free.
type flight[V any] struct {
	done    chan struct{}
	val     V
	err     error
	settled bool
	cancel  context.CancelCauseFunc
	waiters int
}

// New creates a new coordinator.
func New[V any]() *Coordinator[V] {
	return &Coordinator[V]{
		flights: make(map[string]*flight[V]),
	}
}

// Run executes op for key, or joins the flight already in progress for it.
// The first caller for a key starts op on a coordinator-owned context and
// every caller blocks until the flight settles. ctx governs only this
// caller's wait: if it ends, Run returns ctx.Err() and the flight keeps
// running for the remaining (and any future) waiters.
//
// The operation's error is returned verbatim; Run never wraps it.
func (c *Coordinator[V]) Run(ctx context.Context, key string, op Operation[V]) (V, error) {
	var zero V

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	f, ok := c.flights[key]
	if !ok {
		opCtx, cancel := context.WithCancelCause(context.Background())
		f = &flight[V]{
			done:   make(chan struct{}),
			cancel: cancel,
		}
		c.flights[key] = f
		go c.execute(key, f, opCtx, op)
	}
	f.waiters++
	c.mu.Unlock()

	select {
	case <-f.done:
		c.detach(f)
		return f.val, f.err
	case <-ctx.Done():
		c.detach(f)
		return zero, ctx.Err()
	}
}

// execute runs op and settles the flight. Settling and removing the table
// entry happen under one lock acquisition, so a caller that found the
// entry always observes the settled result and a caller that missed it
// starts a fresh flight.
func (c *Coordinator[V]) execute(key string, f *flight[V], ctx context.Context, op Operation[V]) {
	v, err := op(ctx)
	f.cancel(nil)

	c.mu.Lock()
	if !f.settled {
		f.val = v
		f.err = err
		f.settled = true
		close(f.done)
	}
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	c.mu.Unlock()
}

func (c *Coordinator[V]) detach(f *flight[V]) {
	c.mu.Lock()
	f.waiters--
	c.mu.Unlock()
}

// Cancel aborts the flight for key, if any. The flight's context is
// canceled, every registered waiter receives ErrCanceled, and the entry is
// removed so a subsequent Run starts a fresh execution.
func (c *Coordinator[V]) Cancel(key string) {
	c.mu.Lock()
	if f, ok := c.flights[key]; ok {
		delete(c.flights, key)
		c.settleLocked(f, ErrCanceled)
	}
	c.mu.Unlock()
}

// CancelAll aborts every in-progress flight.
func (c *Coordinator[V]) CancelAll() {
	c.mu.Lock()
	for key, f := range c.flights {
		delete(c.flights, key)
		c.settleLocked(f, ErrCanceled)
	}
	c.mu.Unlock()
}

// settleLocked cancels the flight's context and delivers err to waiters.
// Callers must hold c.mu.
func (c *Coordinator[V]) settleLocked(f *flight[V], err error) {
	f.cancel(err)
	if !f.settled {
		f.err = err
		f.settled = true
		close(f.done)
	}
}

// InFlight returns the number of keys with an operation in progress.
func (c *Coordinator[V]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.flights)
}

// Waiters returns the number of callers currently waiting on key.
// Returns 0 if no flight exists for key.
func (c *Coordinator[V]) Waiters(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[key]; ok {
		return f.waiters
	}
	return 0
}

// Close cancels all in-progress flights and rejects future Run calls with
// ErrClosed.
func (c *Coordinator[V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.closed = true

	for key, f := range c.flights {
		delete(c.flights, key)
		c.settleLocked(f, ErrCanceled)
	}
	return nil
}
