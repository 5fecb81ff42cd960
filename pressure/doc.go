// Package pressure observes host memory pressure and broadcasts level
// transitions.
//
// Mobile platforms report memory scarcity as discrete events (warning,
// critical). The Monitor wraps such a signal behind the Source interface
// and fans transitions out to subscribers, typically caches that evict in
// response:
//
//	source := pressure.NewSignalSource() // fed by the platform bridge
//	monitor, err := pressure.New(source)
//	if err != nil {
//	    return err
//	}
//	defer monitor.Close()
//
//	sub := monitor.Subscribe(func(level pressure.Level) {
//	    if level == pressure.LevelCritical {
//	        quoteCache.Clear()
//	    }
//	})
//	defer sub.Cancel()
//
// Levels may move in either direction and may jump normal to critical
// directly. Each subscriber is invoked at most once per transition, and
// all subscribers are notified before the monitor consumes the next
// observation from its source.
//
// Two sources ship with the package: SignalSource for push-style host
// signals (and tests), and RuntimeSource, which polls the Go runtime's
// heap usage against configured thresholds for platforms without a
// native signal.
//
// The monitor only reports. What to evict, and whether warning merits
// action at all, is policy that lives with the subscriber.
package pressure
