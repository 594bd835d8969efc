package admitgate

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the admission policy and reclamation cadence. It is fixed at
// construction; per-call mutation is not supported.
type Config struct {
	// Capacity is the maximum number of tokens (burst size). Must be positive.
	Capacity int64 `yaml:"capacity"`

	// RefillRate is the number of tokens granted per refill interval.
	// Zero (or negative) means the bucket never recovers without a full reset.
	RefillRate int64 `yaml:"refill_rate"`

	// RefillIntervalMs is the length of one refill interval in milliseconds.
	// Must be positive. Partial intervals grant nothing.
	RefillIntervalMs int64 `yaml:"refill_interval_ms"`

	// IdleEvictionMs is how long an identity may go unchecked before its
	// record is reclaimed. Zero disables reclamation.
	IdleEvictionMs int64 `yaml:"idle_eviction_ms"`

	// SweepIntervalMs is how often the reclamation sweep runs. Should be
	// shorter than IdleEvictionMs. Zero disables the background sweeper.
	SweepIntervalMs int64 `yaml:"sweep_interval_ms"`
}

// DefaultConfig returns a policy suitable for a chatty interactive caller:
// a burst of 100, sustained 10 tokens/second, idle records reclaimed after
// ten minutes.
func DefaultConfig() Config {
	return Config{
		Capacity:         100,
		RefillRate:       10,
		RefillIntervalMs: 1000,
		IdleEvictionMs:   (10 * time.Minute).Milliseconds(),
		SweepIntervalMs:  time.Minute.Milliseconds(),
	}
}

// LoadConfigFromFile loads configuration from a YAML file. Fields omitted in
// the file keep their defaults.
func LoadConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the fields that would make the subsystem misbehave silently.
// A non-positive refill rate is deliberately legal.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity %d", ErrNonPositiveCapacity, c.Capacity)
	}
	if c.RefillIntervalMs <= 0 {
		return fmt.Errorf("%w: refill_interval_ms %d", ErrNonPositiveInterval, c.RefillIntervalMs)
	}
	return nil
}

// RefillInterval returns the refill interval as a duration.
func (c Config) RefillInterval() time.Duration {
	return time.Duration(c.RefillIntervalMs) * time.Millisecond
}

// IdleEviction returns the idle threshold as a duration.
func (c Config) IdleEviction() time.Duration {
	return time.Duration(c.IdleEvictionMs) * time.Millisecond
}

// SweepInterval returns the sweep cadence as a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMs) * time.Millisecond
}
