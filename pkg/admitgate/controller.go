package admitgate

import (
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed reports whether the unit of work may proceed.
	Allowed bool

	// Remaining is the number of whole tokens left after this check.
	Remaining int64

	// Capacity is the bucket's burst ceiling.
	Capacity int64

	// RetryAfter is how long until the next refill boundary. Zero when
	// Allowed is true.
	RetryAfter time.Duration
}

// Status is a read-only view of one identity's bucket.
type Status struct {
	Remaining    int64
	Capacity     int64
	RefillRate   int64
	NextRefillIn time.Duration
}

// Stats aggregates registry-wide counters for monitoring. Computing it is
// O(number of tracked identities).
type Stats struct {
	ActiveIdentities int
	TotalTokens      int64
	Config           Config
}

// Controller is the per-identity admission gate. It owns the registry and the
// background reclamation sweeper; there is no package-level state. Construct
// with New, pair one Start with one Stop.
type Controller struct {
	cfg    Config
	now    func() time.Time
	events Events
	reg    *registry

	lifecycle sync.Mutex
	done      chan struct{}
}

// New creates a Controller with the default policy, then applies options.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		cfg:    DefaultConfig(),
		now:    time.Now,
		events: NopEvents{},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if c.cfg.RefillRate < 0 {
		c.cfg.RefillRate = 0
	}

	c.reg = newRegistry(c.cfg)
	return c, nil
}

// Start launches the background reclamation sweeper. It is a no-op when
// sweeping or eviction is disabled in the config. Start is not idempotent:
// calling it twice without Stop in between launches a second sweeper. Pair
// one Start with one Stop.
func (c *Controller) Start() {
	if c.cfg.SweepIntervalMs <= 0 || c.cfg.IdleEvictionMs <= 0 {
		return
	}

	c.lifecycle.Lock()
	done := make(chan struct{})
	c.done = done
	c.lifecycle.Unlock()

	ticker := time.NewTicker(c.cfg.SweepInterval())
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweepOnce()
			case <-done:
				return
			}
		}
	}()
}

// Stop halts the sweeper and drops every record. Safe to call when the
// controller was never started, and safe to call more than once.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.lifecycle.Unlock()

	c.reg.mu.Lock()
	c.reg.reset()
	c.reg.mu.Unlock()
}

// Check runs one admission check for identity, consuming a token when one is
// available. The refill, consumption, and sticky-flag update happen atomically
// under the registry lock; transition events fire after the lock is released.
func (c *Controller) Check(identity string) Decision {
	now := c.now()

	var throttleEv *ThrottleEvent
	var recoveryEv *RecoveryEvent

	c.reg.mu.Lock()
	rec := c.reg.getOrCreate(identity, now)
	rec.lastAccess = now

	// Captured before refilling: the decision state as of the prior call.
	wasThrottled := rec.state == stateThrottled

	rec.bucket.refill(now)

	var d Decision
	if rec.bucket.takeToken() {
		d = Decision{
			Allowed:   true,
			Remaining: rec.bucket.remaining(),
			Capacity:  c.cfg.Capacity,
		}
		if wasThrottled {
			rec.state = stateAdmitting
			recoveryEv = &RecoveryEvent{
				Identity:  identity,
				Remaining: d.Remaining,
				Capacity:  c.cfg.Capacity,
			}
		}
	} else {
		d = Decision{
			Allowed:    false,
			Remaining:  rec.bucket.remaining(),
			Capacity:   c.cfg.Capacity,
			RetryAfter: rec.bucket.nextRefillIn(now),
		}
		if !wasThrottled {
			rec.state = stateThrottled
			rec.lastLimitLog = now
			throttleEv = &ThrottleEvent{
				Identity:     identity,
				Remaining:    d.Remaining,
				Capacity:     c.cfg.Capacity,
				RefillRate:   c.cfg.RefillRate,
				NextRefillIn: d.RetryAfter,
			}
		}
	}
	c.reg.mu.Unlock()

	if throttleEv != nil {
		c.events.Throttled(*throttleEv)
	}
	if recoveryEv != nil {
		c.events.Recovered(*recoveryEv)
	}
	return d
}

// Allow is a convenience wrapper around Check. True means admitted.
func (c *Controller) Allow(identity string) bool {
	return c.Check(identity).Allowed
}

// Status reports the current bucket state for identity without consuming a
// token. An identity with no record gets a synthetic fully-charged status and
// no record is created; stats().ActiveIdentities is unaffected.
func (c *Controller) Status(identity string) Status {
	now := c.now()

	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	rec, ok := c.reg.get(identity)
	if !ok {
		return Status{
			Remaining:    c.cfg.Capacity,
			Capacity:     c.cfg.Capacity,
			RefillRate:   c.cfg.RefillRate,
			NextRefillIn: 0,
		}
	}

	// Refill so the report reflects true current state. lastAccess is left
	// alone: a status probe is not an admission check and must not keep an
	// idle identity alive.
	rec.bucket.refill(now)
	return Status{
		Remaining:    rec.bucket.remaining(),
		Capacity:     c.cfg.Capacity,
		RefillRate:   c.cfg.RefillRate,
		NextRefillIn: rec.bucket.nextRefillIn(now),
	}
}

// Stats aggregates tracked identities and their token totals, refilling each
// bucket first so the sum reflects current state.
func (c *Controller) Stats() Stats {
	now := c.now()

	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	var total int64
	for _, rec := range c.reg.records {
		rec.bucket.refill(now)
		total += rec.bucket.remaining()
	}
	return Stats{
		ActiveIdentities: len(c.reg.records),
		TotalTokens:      total,
		Config:           c.cfg,
	}
}

// Config returns the active policy.
func (c *Controller) Config() Config {
	return c.cfg
}

// sweepOnce evicts records idle beyond the threshold and returns how many
// were removed. The registry lock is held only for the scan-and-delete step.
func (c *Controller) sweepOnce() int {
	cutoff := c.now().Add(-c.cfg.IdleEviction())

	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	return c.reg.sweep(cutoff)
}
