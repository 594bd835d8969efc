package admitgate

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNonPositiveCapacity is returned when bucket capacity is zero or negative.
	// A non-positive capacity would silently reject all traffic forever, so it
	// fails at construction rather than at call time.
	ErrNonPositiveCapacity = errors.New("bucket capacity must be positive")

	// ErrNonPositiveInterval is returned when the refill interval is zero or negative
	ErrNonPositiveInterval = errors.New("refill interval must be positive")

	// ErrEmptyIdentity is returned by the HTTP layer when no caller identity is supplied
	ErrEmptyIdentity = errors.New("identity cannot be empty")
)
