package pressure

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelNormal, "normal"},
		{LevelWarning, "warning"},
		{LevelCritical, "critical"},
		{Level(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.level.String(); got != c.want {
			t.Errorf("Level(%d).String() = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestMonitor_NilSource(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("expected ErrNilSource, got %v", err)
	}
}

func TestMonitor_TransitionNotifiesSubscribers(t *testing.T) {
	source := NewSignalSource()
	monitor, err := New(source)
	if err != nil {
		t.Fatal(err)
	}
	defer monitor.Close()

	levels := make(chan Level, 8)
	sub := monitor.Subscribe(func(l Level) {
		levels <- l
	})
	defer sub.Cancel()

	source.Set(LevelWarning)
	if got := waitLevel(t, levels); got != LevelWarning {
		t.Errorf("expected warning, got %v", got)
	}
	if got := monitor.CurrentLevel(); got != LevelWarning {
		t.Errorf("CurrentLevel = %v, want warning", got)
	}

	// Pressure can recede.
	source.Set(LevelNormal)
	if got := waitLevel(t, levels); got != LevelNormal {
		t.Errorf("expected normal, got %v", got)
	}
}

func TestMonitor_DirectJumpToCritical(t *testing.T) {
	source := NewSignalSource()
	monitor, err := New(source)
	if err != nil {
		t.Fatal(err)
	}
	defer monitor.Close()

	levels := make(chan Level, 8)
	sub := monitor.Subscribe(func(l Level) {
		levels <- l
	})
	defer sub.Cancel()

	// critical is reachable without passing through warning.
	source.Set(LevelCritical)
	if got := waitLevel(t, levels); got != LevelCritical {
		t.Errorf("expected critical directly from normal, got %v", got)
	}
}

func TestMonitor_RepeatedLevelIsNotATransition(t *testing.T) {
	source := NewSignalSource()
	monitor, err := New(source)
	if err != nil {
		t.Fatal(err)
	}
	defer monitor.Close()

	var notifications atomic.Int32
	seen := make(chan struct{}, 8)
	sub := monitor.Subscribe(func(Level) {
		notifications.Add(1)
		seen <- struct{}{}
	})
	defer sub.Cancel()

	source.Set(LevelWarning)
	<-seen
	source.Set(LevelWarning)
	source.Set(LevelWarning)

	// Force a real transition so the duplicate observations are known to
	// have been consumed.
	source.Set(LevelCritical)
	<-seen

	if n := notifications.Load(); n != 2 {
		t.Errorf("expected 2 notifications (warning, critical), got %d", n)
	}
}

func TestMonitor_MultipleSubscribersEachNotifiedOnce(t *testing.T) {
	source := NewSignalSource()
	monitor, err := New(source)
	if err != nil {
		t.Fatal(err)
	}
	defer monitor.Close()

	var first, second atomic.Int32
	done := make(chan struct{}, 2)
	monitor.Subscribe(func(Level) {
		first.Add(1)
		done <- struct{}{}
	})
	monitor.Subscribe(func(Level) {
		second.Add(1)
		done <- struct{}{}
	})

	source.Set(LevelCritical)
	<-done
	<-done

	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("expected each subscriber notified once, got %d and %d",
			first.Load(), second.Load())
	}
}

func TestMonitor_CanceledSubscriptionStopsNotifications(t *testing.T) {
	source := NewSignalSource()
	monitor, err := New(source)
	if err != nil {
		t.Fatal(err)
	}
	defer monitor.Close()

	var canceled atomic.Int32
	active := make(chan Level, 8)

	sub := monitor.Subscribe(func(Level) {
		canceled.Add(1)
	})
	monitor.Subscribe(func(l Level) {
		active <- l
	})

	sub.Cancel()
	source.Set(LevelCritical)
	waitLevel(t, active)

	if n := canceled.Load(); n != 0 {
		t.Errorf("canceled subscription received %d notifications", n)
	}
}

func TestMonitor_Close(t *testing.T) {
	source := NewSignalSource()
	monitor, err := New(source)
	if err != nil {
		t.Fatal(err)
	}

	if err := monitor.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := monitor.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second close: expected ErrClosed, got %v", err)
	}
}

func TestSignalSource_SetAfterCloseIsIgnored(t *testing.T) {
	source := NewSignalSource()
	source.Close()
	source.Set(LevelCritical) // must not panic on closed channel

	if err := source.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second close: expected ErrClosed, got %v", err)
	}
}

func TestRuntimeConfig_Validate(t *testing.T) {
	cases := []struct {
		name string
		cfg  RuntimeConfig
		ok   bool
	}{
		{"valid", RuntimeConfig{WarningBytes: 100, CriticalBytes: 200}, true},
		{"zero warning", RuntimeConfig{CriticalBytes: 200}, false},
		{"zero critical", RuntimeConfig{WarningBytes: 100}, false},
		{"critical not above warning", RuntimeConfig{WarningBytes: 200, CriticalBytes: 200}, false},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

// newFakeRuntimeSource builds an unstarted source whose heap readings
// come from heap instead of the real runtime.
func newFakeRuntimeSource(heap *atomic.Uint64) *RuntimeSource {
	return &RuntimeSource{
		interval: 5 * time.Millisecond,
		warning:  100,
		critical: 200,
		ch:       make(chan Level, 16),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		readMem: func(stats *runtime.MemStats) {
			stats.HeapInuse = heap.Load()
		},
	}
}

func TestRuntimeSource_ClassifiesHeapUsage(t *testing.T) {
	var heap atomic.Uint64
	heap.Store(50)
	source := newFakeRuntimeSource(&heap)

	if got := source.sample(); got != LevelNormal {
		t.Errorf("heap 50: expected normal, got %v", got)
	}
	heap.Store(150)
	if got := source.sample(); got != LevelWarning {
		t.Errorf("heap 150: expected warning, got %v", got)
	}
	heap.Store(250)
	if got := source.sample(); got != LevelCritical {
		t.Errorf("heap 250: expected critical, got %v", got)
	}
}

func TestRuntimeSource_DrivesMonitor(t *testing.T) {
	var heap atomic.Uint64
	heap.Store(250)
	source := newFakeRuntimeSource(&heap)
	go source.loop()

	monitor, err := New(source)
	if err != nil {
		t.Fatal(err)
	}
	defer monitor.Close()

	levels := make(chan Level, 8)
	monitor.Subscribe(func(l Level) {
		levels <- l
	})

	if got := waitLevel(t, levels); got != LevelCritical {
		t.Errorf("expected critical from polled heap, got %v", got)
	}
}

func TestRuntimeSource_NewAndClose(t *testing.T) {
	source, err := NewRuntimeSource(RuntimeConfig{
		Interval:      time.Hour,
		WarningBytes:  1 << 30,
		CriticalBytes: 2 << 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := source.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if _, ok := <-source.Levels(); ok {
		t.Error("expected levels channel closed after Close")
	}
}

func waitLevel(t *testing.T, ch <-chan Level) Level {
	t.Helper()
	select {
	case l := <-ch:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("no level notification received")
		return LevelNormal
	}
}
