// Package cache provides a cost-bounded in-memory cache with LRU
// eviction and memory pressure integration.
//
// Entries carry a caller-assigned cost (typically bytes) and the sum of
// resident costs never exceeds the configured capacity. Insertions evict
// least-recently-used entries to make room; an access is any Get hit or
// the initial Put.
//
//	quotes, err := cache.New[Quote](1 << 20) // 1 MiB budget
//	if err != nil {
//	    return err
//	}
//	quotes.Put("quote:AAPL", q, int64(len(q.Raw)))
//	if q, ok := quotes.Get("quote:AAPL"); ok {
//	    render(q)
//	}
//
// A single value whose cost exceeds the whole capacity is rejected with
// ErrTooLarge rather than thrashing the cache; callers treat that as
// "serve uncached", not as a failure.
//
// # Memory pressure
//
// Attach the cache to a pressure.Monitor to evict proactively:
//
//	sub := quotes.AttachMonitor(monitor)
//	defer sub.Cancel()
//
// A critical transition always clears the cache. A warning trims to a
// fraction of capacity when WithWarningTrim is configured and is
// otherwise ignored.
//
// Values are treated as immutable once inserted; mutating a retrieved
// value is outside the cache's consistency guarantees.
package cache
