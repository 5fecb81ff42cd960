// Package logging provides leveled key=value console logging for the
// coordination layer. Output is for real-time monitoring; it carries no
// durable state and components work identically with logging disabled.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger provides structured logging to an io.Writer.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

// New creates a new Logger writing to stdout at Info level.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes an entry in the format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Coordination event methods ---
// Called by components for real-time visibility into gating decisions.

// FetchStart logs the start of a coordinated fetch.
func (l *Logger) FetchStart(key string) {
	l.Debug("fetch_start", map[string]interface{}{
		"key": key,
	})
}

// FetchComplete logs the completion of a coordinated fetch.
func (l *Logger) FetchComplete(key string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"key":      key,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("fetch_error", fields)
	} else {
		l.Debug("fetch_complete", fields)
	}
}

// FetchCoalesced logs a caller joining an in-flight fetch.
func (l *Logger) FetchCoalesced(key string, waiters int) {
	l.Debug("fetch_coalesced", map[string]interface{}{
		"key":     key,
		"waiters": waiters,
	})
}

// ThrottleSuppressed logs a throttled-away trigger.
func (l *Logger) ThrottleSuppressed(key string, interval time.Duration) {
	l.Debug("throttle_suppressed", map[string]interface{}{
		"key":      key,
		"interval": interval.String(),
	})
}

// DebounceFired logs a debounced operation firing.
func (l *Logger) DebounceFired(key string, delay time.Duration) {
	l.Debug("debounce_fired", map[string]interface{}{
		"key":   key,
		"delay": delay.String(),
	})
}

// CacheEvict logs a cache eviction.
func (l *Logger) CacheEvict(key string, cost int64, reason string) {
	l.Debug("cache_evict", map[string]interface{}{
		"key":    key,
		"cost":   cost,
		"reason": reason,
	})
}

// CacheRejected logs an entry too large to cache.
func (l *Logger) CacheRejected(key string, cost, capacity int64) {
	l.Warn("cache_rejected", map[string]interface{}{
		"key":      key,
		"cost":     cost,
		"capacity": capacity,
	})
}

// PressureChange logs a memory pressure transition.
func (l *Logger) PressureChange(from, to string) {
	l.Info("pressure_change", map[string]interface{}{
		"from": from,
		"to":   to,
	})
}
