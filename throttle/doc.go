// Package throttle limits how often a keyed operation may execute.
//
// Pull-to-refresh, app foregrounding and periodic timers can all trigger
// the same refresh within seconds of each other. The Throttler lets the
// first eligible call through and suppresses the rest until the interval
// has elapsed, per key.
//
//	thr := throttle.New[[]Quote]()
//	defer thr.Close()
//
//	quotes, ran, err := thr.Do("refresh:watchlist", 30*time.Second, true, fetchWatchlist)
//	if !ran {
//	    // suppressed: keep showing current data
//	}
//
// A suppressed call is a normal result, not an error: Do returns
// (zero, false, nil). Passing allowFirst=false records the current time
// without executing, which is useful when the caller has just rendered
// fresh data from elsewhere and only wants to throttle subsequent
// triggers.
//
// Timestamps persist until Reset or ResetAll; the throttler has no
// cancellation concept, an operation either runs to completion or never
// starts.
package throttle
