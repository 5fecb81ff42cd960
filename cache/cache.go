package cache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/marketlens/fetchkit/logging"
	"github.com/marketlens/fetchkit/pressure"
)

// Common errors.
var (
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrInvalidCost     = errors.New("invalid cost")
	ErrTooLarge        = errors.New("entry too large to cache")
)

// EvictReason explains why an entry left the cache.
type EvictReason string

const (
	// EvictCapacity: evicted to make room for an insertion.
	EvictCapacity EvictReason = "capacity"
	// EvictPressure: evicted in response to a memory pressure transition.
	EvictPressure EvictReason = "pressure"
	// EvictRemoved: removed explicitly via Remove.
	EvictRemoved EvictReason = "removed"
	// EvictCleared: removed by Clear.
	EvictCleared EvictReason = "cleared"
)

// OnEvict is called for every entry leaving the cache, after the cache's
// lock has been released.
type OnEvict func(key string, cost int64, reason EvictReason)

type entry[V any] struct {
	key  string
	val  V
	cost int64
}

type evicted struct {
	key    string
	cost   int64
	reason EvictReason
}

// Cache is a cost-bounded cache with least-recently-used eviction. The
// sum of entry costs never exceeds the configured capacity after any
// public operation returns. Stored values are treated as immutable;
// callers must not mutate a value after Put or after retrieving it with
// Get. The cache is safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int64
	used     int64
	entries  map[string]*list.Element
	order    *list.List // front = most recently used

	onEvict  OnEvict
	warnTrim float64
	logger   *logging.Logger
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithOnEvict sets a callback invoked for every eviction.
func WithOnEvict[V any](fn OnEvict) Option[V] {
	return func(c *Cache[V]) {
		c.onEvict = fn
	}
}

// WithWarningTrim makes a warning pressure transition trim the cache to
// the given fraction of capacity (0 < fraction < 1). Without this option
// warnings are logged but leave the cache untouched; only critical
// clears it.
func WithWarningTrim[V any](fraction float64) Option[V] {
	return func(c *Cache[V]) {
		if fraction > 0 && fraction < 1 {
			c.warnTrim = fraction
		}
	}
}

// WithLogger attaches a logger that records evictions and rejections.
func WithLogger[V any](l *logging.Logger) Option[V] {
	return func(c *Cache[V]) {
		c.logger = l.WithComponent("cache")
	}
}

// New creates a cache holding at most capacity total cost.
func New[V any](capacity int64, opts ...Option[V]) (*Cache[V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	c := &Cache[V]{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the value for key. A hit refreshes the entry's recency.
// A missing key is an absence, never an error.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[V]).val, true
}

// Put inserts or replaces the entry for key, evicting least-recently-used
// entries as needed to keep total cost within capacity. If cost alone
// exceeds capacity the entry is rejected with ErrTooLarge and the cache
// is left unchanged.
func (c *Cache[V]) Put(key string, val V, cost int64) error {
	if cost < 0 {
		return ErrInvalidCost
	}

	c.mu.Lock()
	if cost > c.capacity {
		capacity := c.capacity
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.CacheRejected(key, cost, capacity)
		}
		return ErrTooLarge
	}

	// Replacing an entry frees its cost before room is measured.
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[V])
		c.used -= e.cost
		c.order.Remove(el)
		delete(c.entries, key)
	}

	var dropped []evicted
	for c.used+cost > c.capacity {
		dropped = append(dropped, c.evictOldestLocked(EvictCapacity))
	}

	el := c.order.PushFront(&entry[V]{key: key, val: val, cost: cost})
	c.entries[key] = el
	c.used += cost
	c.mu.Unlock()

	c.report(dropped)
	return nil
}

// Remove deletes the entry for key, reporting whether it was resident.
func (c *Cache[V]) Remove(key string) bool {
	c.mu.Lock()
	el, ok := c.entries[key]
	var dropped []evicted
	if ok {
		e := el.Value.(*entry[V])
		c.used -= e.cost
		c.order.Remove(el)
		delete(c.entries, key)
		dropped = append(dropped, evicted{key: key, cost: e.cost, reason: EvictRemoved})
	}
	c.mu.Unlock()

	c.report(dropped)
	return ok
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	dropped := c.clearLocked(EvictCleared)
	c.mu.Unlock()

	c.report(dropped)
}

// Len returns the number of resident entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cost returns the total cost of resident entries.
func (c *Cache[V]) Cost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Capacity returns the configured cost limit.
func (c *Cache[V]) Capacity() int64 {
	return c.capacity
}

// AttachMonitor subscribes the cache to a pressure monitor. A critical
// transition clears the cache; a warning trims it when WithWarningTrim
// was configured, and is otherwise only logged. Cancel the returned
// subscription to detach.
func (c *Cache[V]) AttachMonitor(m *pressure.Monitor) *pressure.Subscription {
	return m.Subscribe(func(level pressure.Level) {
		switch level {
		case pressure.LevelCritical:
			c.mu.Lock()
			dropped := c.clearLocked(EvictPressure)
			c.mu.Unlock()
			c.report(dropped)
		case pressure.LevelWarning:
			if c.warnTrim > 0 {
				c.trimTo(int64(float64(c.capacity) * c.warnTrim))
			} else if c.logger != nil {
				c.logger.Debug("pressure_warning_ignored", map[string]interface{}{
					"resident_cost": c.Cost(),
				})
			}
		}
	})
}

// trimTo evicts least-recently-used entries until total cost is at most
// limit.
func (c *Cache[V]) trimTo(limit int64) {
	c.mu.Lock()
	var dropped []evicted
	for c.used > limit && c.order.Len() > 0 {
		dropped = append(dropped, c.evictOldestLocked(EvictPressure))
	}
	c.mu.Unlock()

	c.report(dropped)
}

// evictOldestLocked removes the least-recently-used entry. Callers must
// hold c.mu and ensure the cache is non-empty.
func (c *Cache[V]) evictOldestLocked(reason EvictReason) evicted {
	el := c.order.Back()
	e := el.Value.(*entry[V])
	c.order.Remove(el)
	delete(c.entries, e.key)
	c.used -= e.cost
	return evicted{key: e.key, cost: e.cost, reason: reason}
}

// clearLocked removes all entries. Callers must hold c.mu.
func (c *Cache[V]) clearLocked(reason EvictReason) []evicted {
	dropped := make([]evicted, 0, len(c.entries))
	for key, el := range c.entries {
		e := el.Value.(*entry[V])
		dropped = append(dropped, evicted{key: key, cost: e.cost, reason: reason})
		delete(c.entries, key)
	}
	c.order.Init()
	c.used = 0
	return dropped
}

// report delivers eviction notifications outside the lock, so callbacks
// may safely call back into the cache.
func (c *Cache[V]) report(dropped []evicted) {
	for _, d := range dropped {
		if c.logger != nil {
			c.logger.CacheEvict(d.key, d.cost, string(d.reason))
		}
		if c.onEvict != nil {
			c.onEvict(d.key, d.cost, d.reason)
		}
	}
}
