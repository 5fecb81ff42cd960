package debounce

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_FiresAfterDelay(t *testing.T) {
	deb := New()
	defer deb.Close()

	fired := make(chan struct{})
	deb.Schedule("search", 20*time.Millisecond, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled call never fired")
	}

	if n := deb.Pending(); n != 0 {
		t.Errorf("expected 0 pending after firing, got %d", n)
	}
}

func TestDebouncer_LastSchedulerWins(t *testing.T) {
	deb := New()
	defer deb.Close()

	var total atomic.Int32
	var winner atomic.Int32
	done := make(chan struct{})

	// Three rapid schedules; only the last should fire.
	for i := 1; i <= 3; i++ {
		i := i
		deb.Schedule("search", 50*time.Millisecond, func() {
			total.Add(1)
			winner.Store(int32(i))
			close(done)
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no call fired")
	}
	// Give a superseded timer a chance to misfire.
	time.Sleep(100 * time.Millisecond)

	if n := total.Load(); n != 1 {
		t.Errorf("expected exactly 1 execution, got %d", n)
	}
	if w := winner.Load(); w != 3 {
		t.Errorf("expected last scheduled call to win, got call %d", w)
	}
}

func TestDebouncer_CancelPreventsFiring(t *testing.T) {
	deb := New()
	defer deb.Close()

	var fired atomic.Bool
	deb.Schedule("search", 30*time.Millisecond, func() {
		fired.Store(true)
	})
	deb.Cancel("search")

	time.Sleep(80 * time.Millisecond)
	if fired.Load() {
		t.Error("canceled call must never execute")
	}
	if n := deb.Pending(); n != 0 {
		t.Errorf("expected 0 pending after cancel, got %d", n)
	}
}

func TestDebouncer_KeysIndependent(t *testing.T) {
	deb := New()
	defer deb.Close()

	var searchFired, refreshFired atomic.Bool
	refreshDone := make(chan struct{})

	deb.Schedule("search", 30*time.Millisecond, func() {
		searchFired.Store(true)
	})
	deb.Schedule("refresh", 30*time.Millisecond, func() {
		refreshFired.Store(true)
		close(refreshDone)
	})
	deb.Cancel("search")

	select {
	case <-refreshDone:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never fired")
	}
	if searchFired.Load() {
		t.Error("canceled search fired")
	}
	if !refreshFired.Load() {
		t.Error("refresh should be unaffected by canceling search")
	}
}

func TestDebouncer_RescheduleAfterFiring(t *testing.T) {
	deb := New()
	defer deb.Close()

	var count atomic.Int32
	for i := 0; i < 2; i++ {
		done := make(chan struct{})
		deb.Schedule("search", 10*time.Millisecond, func() {
			count.Add(1)
			close(done)
		})
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("round %d never fired", i)
		}
	}
	if n := count.Load(); n != 2 {
		t.Errorf("expected 2 executions across separate windows, got %d", n)
	}
}

func TestDebouncer_CancelAll(t *testing.T) {
	deb := New()
	defer deb.Close()

	var fired atomic.Int32
	for _, key := range []string{"a", "b", "c"} {
		deb.Schedule(key, 30*time.Millisecond, func() {
			fired.Add(1)
		})
	}
	deb.CancelAll()

	time.Sleep(80 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("expected no executions after CancelAll, got %d", n)
	}
}

func TestDebouncer_Close(t *testing.T) {
	deb := New()

	var fired atomic.Bool
	deb.Schedule("search", 30*time.Millisecond, func() {
		fired.Store(true)
	})

	if err := deb.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := deb.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second close: expected ErrClosed, got %v", err)
	}

	// Scheduling after close is a no-op.
	deb.Schedule("search", time.Millisecond, func() {
		fired.Store(true)
	})

	time.Sleep(80 * time.Millisecond)
	if fired.Load() {
		t.Error("no call should fire after Close")
	}
}
