package admitgate

import (
	"sync"
	"time"
)

// limitState is the sticky per-record throttle flag. A record moves to
// stateThrottled on the first rejection of an episode and back to
// stateAdmitting on the first admission thereafter; the transitions are the
// only points that emit observability events.
type limitState uint8

const (
	stateAdmitting limitState = iota
	stateThrottled
)

// record tracks one identity's bucket plus the bookkeeping the controller
// needs for eviction and transition logging.
type record struct {
	bucket       *tokenBucket
	lastAccess   time.Time // Most recent admission check; drives idle eviction
	state        limitState
	lastLimitLog time.Time // When the current throttling episode was first logged
}

// registry owns the identity -> record map. All access goes through the
// controller while holding mu; the unexported methods assume the lock is held
// unless noted. Nothing outside this package can reach the map.
type registry struct {
	mu      sync.Mutex
	records map[string]*record
	cfg     Config
}

func newRegistry(cfg Config) *registry {
	return &registry{
		records: make(map[string]*record),
		cfg:     cfg,
	}
}

// getOrCreate returns the record for identity, creating one with a freshly
// charged bucket on first use. Lock must be held, which makes the
// insert-if-absent atomic.
func (g *registry) getOrCreate(identity string, now time.Time) *record {
	rec, ok := g.records[identity]
	if !ok {
		rec = &record{
			bucket:     newTokenBucket(g.cfg.Capacity, g.cfg.RefillRate, g.cfg.RefillInterval(), now),
			lastAccess: now,
		}
		g.records[identity] = rec
	}
	return rec
}

// get returns the record for identity without creating one. Lock must be held.
func (g *registry) get(identity string) (*record, bool) {
	rec, ok := g.records[identity]
	return rec, ok
}

// sweep removes records whose lastAccess is older than cutoff and returns the
// number removed. Lock must be held for the duration of the scan, which keeps
// the iterate-then-delete safe against concurrent lookups and inserts.
func (g *registry) sweep(cutoff time.Time) int {
	removed := 0
	for identity, rec := range g.records {
		if rec.lastAccess.Before(cutoff) {
			delete(g.records, identity)
			removed++
		}
	}
	return removed
}

// reset drops every record. Lock must be held.
func (g *registry) reset() {
	g.records = make(map[string]*record)
}
