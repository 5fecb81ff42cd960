// Package dedup deduplicates concurrent in-flight operations by key.
//
// Mobile portfolio clients fire the same fetch from several screens at
// once: a watchlist row, a detail view and a widget may all ask for
// "quote:AAPL" within milliseconds. The Coordinator ensures only one
// underlying request executes per key; every concurrent caller blocks on
// the same flight and receives the identical result.
//
// # Usage
//
//	coord := dedup.New[Quote]()
//	defer coord.Close()
//
//	quote, err := coord.Run(ctx, "quote:AAPL", func(ctx context.Context) (Quote, error) {
//	    return fetchQuote(ctx, "AAPL")
//	})
//
// Concurrent Run calls with the same key join the in-progress flight
// instead of starting a second request. Keys are opaque to the
// coordinator; callers choose their own scheme (e.g. "predict:AAPL:openai").
//
// # Cancellation
//
// A caller's own context cancels only that caller's wait. The underlying
// operation keeps running until it completes naturally or is canceled
// explicitly:
//
//	coord.Cancel("quote:AAPL") // waiters receive dedup.ErrCanceled
//	coord.CancelAll()
//
// This is deliberate: work that has already been started is usually worth
// finishing for late joiners, and a short-lived caller should not be able
// to abort a fetch other screens are waiting on.
//
// # Error semantics
//
// The operation's error reaches every waiter verbatim. The coordinator
// adds no wrapping and no retries; retry policy belongs to the caller,
// which can simply call Run again once the key has cleared.
package dedup
