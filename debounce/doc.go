// Package debounce delays keyed operations until input settles.
//
// A symbol search box fires a lookup on every keystroke; only the final
// string matters. The Debouncer schedules each call with a delay and
// discards the previous pending call for the same key, so a burst of
// triggers collapses into one execution of the last operation:
//
//	deb := debounce.New()
//	defer deb.Close()
//
//	// On each keystroke:
//	deb.Schedule("search", 200*time.Millisecond, func() {
//	    runSearch(query) // only fires once typing pauses
//	})
//
// Keys are independent; canceling or rescheduling one key never affects
// another. The scheduled operation performs its own side effects (update
// a cache, trigger a coordinated fetch) and returns nothing to the
// scheduler.
package debounce
