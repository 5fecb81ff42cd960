package pressure

import (
	"sync"

	"github.com/google/uuid"

	"github.com/marketlens/fetchkit/logging"
)

// Monitor observes a pressure Source and broadcasts level transitions to
// subscribers. It holds no eviction policy; subscribers decide what a
// transition means for them.
type Monitor struct {
	source Source
	logger *logging.Logger

	mu     sync.RWMutex
	level  Level
	subs   map[string]func(Level)
	closed bool

	done chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger attaches a logger that records level transitions.
func WithLogger(l *logging.Logger) Option {
	return func(m *Monitor) {
		m.logger = l.WithComponent("pressure")
	}
}

// New creates a monitor consuming levels from source. The monitor starts
// at LevelNormal and runs until Close or until the source's channel
// closes.
func New(source Source, opts ...Option) (*Monitor, error) {
	if source == nil {
		return nil, ErrNilSource
	}

	m := &Monitor{
		source: source,
		level:  LevelNormal,
		subs:   make(map[string]func(Level)),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.loop()
	return m, nil
}

// loop consumes source observations. Subscribers run synchronously here,
// so every transition is fully delivered before the next observation is
// taken from the source.
func (m *Monitor) loop() {
	defer close(m.done)
	for level := range m.source.Levels() {
		m.transition(level)
	}
}

// transition updates the level and notifies subscribers. Repeated
// observations of the current level are not transitions and notify
// no one.
func (m *Monitor) transition(level Level) {
	m.mu.Lock()
	if m.closed || level == m.level {
		m.mu.Unlock()
		return
	}
	prev := m.level
	m.level = level

	callbacks := make([]func(Level), 0, len(m.subs))
	for _, cb := range m.subs {
		callbacks = append(callbacks, cb)
	}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.PressureChange(prev.String(), level.String())
	}

	// Each subscriber sees the transition at most once; invocation order
	// is unspecified.
	for _, cb := range callbacks {
		cb(level)
	}
}

// CurrentLevel returns the most recently observed level.
func (m *Monitor) CurrentLevel() Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// Subscription identifies one registered callback.
type Subscription struct {
	id      string
	monitor *Monitor
}

// Cancel removes the subscription. The callback is never invoked again
// after Cancel returns from the monitor's perspective; a transition
// already in delivery may still reach it.
func (s *Subscription) Cancel() {
	s.monitor.mu.Lock()
	delete(s.monitor.subs, s.id)
	s.monitor.mu.Unlock()
}

// Subscribe registers a callback invoked on every level transition.
func (m *Monitor) Subscribe(cb func(Level)) *Subscription {
	id := uuid.NewString()

	m.mu.Lock()
	if !m.closed {
		m.subs[id] = cb
	}
	m.mu.Unlock()

	return &Subscription{id: id, monitor: m}
}

// Close stops the monitor, closes the source, and drops all
// subscriptions.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.closed = true
	m.subs = make(map[string]func(Level))
	m.mu.Unlock()

	err := m.source.Close()
	<-m.done
	return err
}
