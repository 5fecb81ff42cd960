package pressure

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// Common errors.
var (
	ErrClosed        = errors.New("monitor closed")
	ErrNilSource     = errors.New("nil source")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Level describes host-reported memory scarcity. Levels are ordered but
// transitions may jump in either direction; critical is reachable
// directly from normal.
type Level int

const (
	LevelNormal Level = iota
	LevelWarning
	LevelCritical
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Source delivers pressure level observations from the host platform.
type Source interface {
	// Levels returns the channel of observed levels. The channel is
	// closed when the source stops.
	Levels() <-chan Level

	// Close stops the source and closes its channel.
	Close() error
}

// SignalSource is a push-style source fed by the host. Platform bridges
// call Set when the OS reports a pressure event; tests use it to drive
// transitions deterministically.
type SignalSource struct {
	mu     sync.Mutex
	ch     chan Level
	closed bool
}

// NewSignalSource creates a push-style source.
func NewSignalSource() *SignalSource {
	return &SignalSource{
		ch: make(chan Level, 16),
	}
}

// Set reports a level observation. If the buffer is full the observation
// is dropped; the next one carries the current state anyway.
func (s *SignalSource) Set(level Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- level:
	default:
	}
}

// Levels returns the observation channel.
func (s *SignalSource) Levels() <-chan Level {
	return s.ch
}

// Close stops the source.
func (s *SignalSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	close(s.ch)
	return nil
}

// RuntimeConfig configures a RuntimeSource.
type RuntimeConfig struct {
	// Interval between heap samples. Default: 5s.
	Interval time.Duration

	// WarningBytes is the heap-in-use size at which warning is reported.
	WarningBytes uint64

	// CriticalBytes is the heap-in-use size at which critical is
	// reported. Must be greater than WarningBytes.
	CriticalBytes uint64
}

// Validate checks the configuration.
func (c RuntimeConfig) Validate() error {
	if c.WarningBytes == 0 || c.CriticalBytes == 0 {
		return ErrInvalidConfig
	}
	if c.CriticalBytes <= c.WarningBytes {
		return ErrInvalidConfig
	}
	return nil
}

// RuntimeSource polls the Go runtime's heap usage and maps it to pressure
// levels. It stands in for the host signal on platforms without one.
type RuntimeSource struct {
	interval time.Duration
	warning  uint64
	critical uint64

	ch      chan Level
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	readMem func(*runtime.MemStats) // for testing
}

// NewRuntimeSource creates a polling source and starts sampling.
func NewRuntimeSource(cfg RuntimeConfig) (*RuntimeSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	s := &RuntimeSource{
		interval: interval,
		warning:  cfg.WarningBytes,
		critical: cfg.CriticalBytes,
		ch:       make(chan Level, 16),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		readMem:  runtime.ReadMemStats,
	}
	go s.loop()
	return s, nil
}

func (s *RuntimeSource) loop() {
	defer close(s.done)
	defer close(s.ch)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case s.ch <- s.sample():
			default:
			}
		case <-s.stop:
			return
		}
	}
}

// sample classifies current heap usage.
func (s *RuntimeSource) sample() Level {
	var stats runtime.MemStats
	s.readMem(&stats)

	switch {
	case stats.HeapInuse >= s.critical:
		return LevelCritical
	case stats.HeapInuse >= s.warning:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// Levels returns the observation channel.
func (s *RuntimeSource) Levels() <-chan Level {
	return s.ch
}

// Close stops sampling.
func (s *RuntimeSource) Close() error {
	s.once.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}

// Compile-time interface checks.
var (
	_ Source = (*SignalSource)(nil)
	_ Source = (*RuntimeSource)(nil)
)
