package admitgate

import (
	"fmt"
	"time"
)

// Option is a functional option for configuring a Controller.
type Option func(*Controller) error

// WithConfig sets the admission policy.
func WithConfig(config Config) Option {
	return func(c *Controller) error {
		if err := config.Validate(); err != nil {
			return err
		}
		c.cfg = config
		return nil
	}
}

// WithConfigFile loads the admission policy from a YAML file.
func WithConfigFile(path string) Option {
	return func(c *Controller) error {
		config, err := LoadConfigFromFile(path)
		if err != nil {
			return err
		}
		c.cfg = config
		return nil
	}
}

// WithEvents sets the sink that receives throttled/recovered transition
// events. The default sink discards them.
func WithEvents(events Events) Option {
	return func(c *Controller) error {
		if events == nil {
			return fmt.Errorf("%w: events sink cannot be nil", ErrInvalidConfig)
		}
		c.events = events
		return nil
	}
}

// WithClock sets the time source. The controller assumes a monotonically
// non-decreasing clock at millisecond resolution; backwards jumps are
// tolerated but grant no tokens. Intended for the hosting process and tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) error {
		if now == nil {
			return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
		}
		c.now = now
		return nil
	}
}
