package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinator_SingleCaller(t *testing.T) {
	coord := New[string]()
	defer coord.Close()

	got, err := coord.Run(context.Background(), "quote:AAPL", func(ctx context.Context) (string, error) {
		return "189.50", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "189.50" {
		t.Errorf("expected 189.50, got %q", got)
	}
	if n := coord.InFlight(); n != 0 {
		t.Errorf("expected 0 in-flight after completion, got %d", n)
	}
}

func TestCoordinator_ConcurrentCallsShareOneExecution(t *testing.T) {
	coord := New[int]()
	defer coord.Close()

	var invocations atomic.Int32
	release := make(chan struct{})

	op := func(ctx context.Context) (int, error) {
		invocations.Add(1)
		<-release
		return 42, nil
	}

	const callers = 10
	results := make([]int, callers)
	errs := make([]error, callers)

	var started sync.WaitGroup
	var done sync.WaitGroup
	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = coord.Run(context.Background(), "quote:MSFT", op)
		}(i)
	}

	started.Wait()
	waitFor(t, func() bool { return coord.Waiters("quote:MSFT") == callers })
	close(release)
	done.Wait()

	if n := invocations.Load(); n != 1 {
		t.Errorf("expected exactly 1 invocation, got %d", n)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != 42 {
			t.Errorf("caller %d: expected 42, got %d", i, results[i])
		}
	}
}

func TestCoordinator_ErrorDeliveredVerbatim(t *testing.T) {
	coord := New[string]()
	defer coord.Close()

	errUpstream := errors.New("upstream unavailable")
	release := make(chan struct{})

	var errs [3]error
	var done sync.WaitGroup
	for i := 0; i < 3; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			_, errs[i] = coord.Run(context.Background(), "quote:GOOG", func(ctx context.Context) (string, error) {
				<-release
				return "", errUpstream
			})
		}(i)
	}

	waitFor(t, func() bool { return coord.Waiters("quote:GOOG") == 3 })
	close(release)
	done.Wait()

	for i, err := range errs {
		if !errors.Is(err, errUpstream) {
			t.Errorf("caller %d: expected upstream error verbatim, got %v", i, err)
		}
	}
}

func TestCoordinator_Cancel(t *testing.T) {
	coord := New[string]()
	defer coord.Close()

	opCtxDone := make(chan struct{})
	var errs [2]error
	var done sync.WaitGroup
	for i := 0; i < 2; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			_, errs[i] = coord.Run(context.Background(), "quote:TSLA", func(ctx context.Context) (string, error) {
				<-ctx.Done()
				close(opCtxDone)
				return "", ctx.Err()
			})
		}(i)
	}

	waitFor(t, func() bool { return coord.Waiters("quote:TSLA") == 2 })
	coord.Cancel("quote:TSLA")
	done.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrCanceled) {
			t.Errorf("caller %d: expected ErrCanceled, got %v", i, err)
		}
	}

	// The operation's context must have been canceled too.
	select {
	case <-opCtxDone:
	case <-time.After(time.Second):
		t.Fatal("operation context was not canceled")
	}

	// A fresh Run after Cancel starts a new execution.
	got, err := coord.Run(context.Background(), "quote:TSLA", func(ctx context.Context) (string, error) {
		return "240.10", nil
	})
	if err != nil {
		t.Fatalf("run after cancel: %v", err)
	}
	if got != "240.10" {
		t.Errorf("expected fresh result, got %q", got)
	}
}

func TestCoordinator_CallerTimeoutLeavesFlightRunning(t *testing.T) {
	coord := New[int]()
	defer coord.Close()

	release := make(chan struct{})
	var invocations atomic.Int32

	op := func(ctx context.Context) (int, error) {
		invocations.Add(1)
		select {
		case <-release:
			return 7, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	// First caller gives up quickly.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := coord.Run(ctx, "predict:NVDA:openai", op)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	// The flight must still be in progress for late joiners.
	if n := coord.InFlight(); n != 1 {
		t.Fatalf("expected flight to keep running, in-flight = %d", n)
	}

	var got int
	var joinErr error
	joined := make(chan struct{})
	go func() {
		got, joinErr = coord.Run(context.Background(), "predict:NVDA:openai", op)
		close(joined)
	}()

	waitFor(t, func() bool { return coord.Waiters("predict:NVDA:openai") == 1 })
	close(release)
	<-joined

	if joinErr != nil {
		t.Fatalf("late joiner: %v", joinErr)
	}
	if got != 7 {
		t.Errorf("late joiner: expected 7, got %d", got)
	}
	if n := invocations.Load(); n != 1 {
		t.Errorf("expected 1 invocation despite caller timeout, got %d", n)
	}
}

func TestCoordinator_DistinctKeysRunIndependently(t *testing.T) {
	coord := New[string]()
	defer coord.Close()

	var invocations atomic.Int32
	release := make(chan struct{})
	op := func(ctx context.Context) (string, error) {
		invocations.Add(1)
		<-release
		return "ok", nil
	}

	var done sync.WaitGroup
	for _, key := range []string{"quote:AAPL", "quote:MSFT", "quote:GOOG"} {
		done.Add(1)
		go func(key string) {
			defer done.Done()
			coord.Run(context.Background(), key, op)
		}(key)
	}

	waitFor(t, func() bool { return coord.InFlight() == 3 })
	close(release)
	done.Wait()

	if n := invocations.Load(); n != 3 {
		t.Errorf("expected 3 invocations for 3 keys, got %d", n)
	}
}

func TestCoordinator_CancelAll(t *testing.T) {
	coord := New[string]()
	defer coord.Close()

	block := func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	var errs [2]error
	var done sync.WaitGroup
	for i, key := range []string{"quote:AAPL", "quote:MSFT"} {
		done.Add(1)
		go func(i int, key string) {
			defer done.Done()
			_, errs[i] = coord.Run(context.Background(), key, block)
		}(i, key)
	}

	waitFor(t, func() bool { return coord.InFlight() == 2 })
	coord.CancelAll()
	done.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrCanceled) {
			t.Errorf("caller %d: expected ErrCanceled, got %v", i, err)
		}
	}
	if n := coord.InFlight(); n != 0 {
		t.Errorf("expected 0 in-flight after CancelAll, got %d", n)
	}
}

func TestCoordinator_Close(t *testing.T) {
	coord := New[string]()

	if err := coord.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := coord.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second close: expected ErrClosed, got %v", err)
	}

	_, err := coord.Run(context.Background(), "quote:AAPL", func(ctx context.Context) (string, error) {
		return "", nil
	})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("run after close: expected ErrClosed, got %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
