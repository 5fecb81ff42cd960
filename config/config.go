// Package config loads coordination-layer tuning from TOML.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so intervals read naturally in TOML
// (e.g. default_interval = "30s").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds tuning for the coordination layer. Zero values fall back
// to defaults during Validate via ApplyDefaults.
type Config struct {
	Throttle ThrottleConfig `toml:"throttle"`
	Debounce DebounceConfig `toml:"debounce"`
	Cache    CacheConfig    `toml:"cache"`
	Pressure PressureConfig `toml:"pressure"`
}

// ThrottleConfig tunes the keyed throttler.
type ThrottleConfig struct {
	// DefaultInterval is the minimum spacing between executions per key.
	DefaultInterval Duration `toml:"default_interval"`

	// AllowFirstCall controls whether an unthrottled key executes
	// immediately or only primes the window.
	AllowFirstCall bool `toml:"allow_first_call"`
}

// DebounceConfig tunes the keyed debouncer.
type DebounceConfig struct {
	// DefaultDelay is how long input must settle before firing.
	DefaultDelay Duration `toml:"default_delay"`
}

// CacheConfig tunes the cost-bounded cache.
type CacheConfig struct {
	// CapacityBytes is the total cost budget.
	CapacityBytes int64 `toml:"capacity_bytes"`

	// WarningTrim, when between 0 and 1 exclusive, trims the cache to
	// this fraction of capacity on a warning pressure transition. Zero
	// disables trimming; only critical clears.
	WarningTrim float64 `toml:"warning_trim"`
}

// PressureConfig tunes the runtime pressure source.
type PressureConfig struct {
	// PollInterval between heap samples.
	PollInterval Duration `toml:"poll_interval"`

	// WarningBytes and CriticalBytes are the heap thresholds for the
	// corresponding pressure levels.
	WarningBytes  uint64 `toml:"warning_bytes"`
	CriticalBytes uint64 `toml:"critical_bytes"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Throttle: ThrottleConfig{
			DefaultInterval: Duration(30 * time.Second),
			AllowFirstCall:  true,
		},
		Debounce: DebounceConfig{
			DefaultDelay: Duration(200 * time.Millisecond),
		},
		Cache: CacheConfig{
			CapacityBytes: 4 << 20, // 4 MiB
		},
		Pressure: PressureConfig{
			PollInterval:  Duration(5 * time.Second),
			WarningBytes:  192 << 20,
			CriticalBytes: 256 << 20,
		},
	}
}

// ApplyDefaults fills zero-valued fields from Default.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Throttle.DefaultInterval <= 0 {
		c.Throttle.DefaultInterval = def.Throttle.DefaultInterval
	}
	if c.Debounce.DefaultDelay <= 0 {
		c.Debounce.DefaultDelay = def.Debounce.DefaultDelay
	}
	if c.Cache.CapacityBytes <= 0 {
		c.Cache.CapacityBytes = def.Cache.CapacityBytes
	}
	if c.Pressure.PollInterval <= 0 {
		c.Pressure.PollInterval = def.Pressure.PollInterval
	}
	if c.Pressure.WarningBytes == 0 {
		c.Pressure.WarningBytes = def.Pressure.WarningBytes
	}
	if c.Pressure.CriticalBytes == 0 {
		c.Pressure.CriticalBytes = def.Pressure.CriticalBytes
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Throttle.DefaultInterval <= 0 {
		return fmt.Errorf("throttle.default_interval must be positive")
	}
	if c.Debounce.DefaultDelay <= 0 {
		return fmt.Errorf("debounce.default_delay must be positive")
	}
	if c.Cache.CapacityBytes <= 0 {
		return fmt.Errorf("cache.capacity_bytes must be positive")
	}
	if c.Cache.WarningTrim < 0 || c.Cache.WarningTrim >= 1 {
		return fmt.Errorf("cache.warning_trim must be in [0, 1)")
	}
	if c.Pressure.PollInterval <= 0 {
		return fmt.Errorf("pressure.poll_interval must be positive")
	}
	if c.Pressure.CriticalBytes <= c.Pressure.WarningBytes {
		return fmt.Errorf("pressure.critical_bytes must exceed pressure.warning_bytes")
	}
	return nil
}

// Load reads configuration from a TOML file, applies defaults for
// omitted fields, and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader reads configuration from TOML text.
func LoadReader(r io.Reader) (Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
