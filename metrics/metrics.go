// Package metrics tracks in-process admission statistics for monitoring.
// Counters are best-effort observability; they never influence admission
// decisions.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks admission outcomes, process-wide and per identity.
type Collector struct {
	totalChecks    atomic.Int64
	admittedChecks atomic.Int64
	rejectedChecks atomic.Int64

	mu            sync.RWMutex
	identityStats map[string]*IdentityStats
	startTime     time.Time
}

// IdentityStats tracks outcomes for one caller identity.
type IdentityStats struct {
	Identity       string    `json:"identity"`
	TotalChecks    int64     `json:"total_checks"`
	AdmittedChecks int64     `json:"admitted_checks"`
	RejectedChecks int64     `json:"rejected_checks"`
	FirstCheckAt   time.Time `json:"first_check_at"`
	LastCheckAt    time.Time `json:"last_check_at"`
}

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	TotalChecks    int64            `json:"total_checks"`
	AdmittedChecks int64            `json:"admitted_checks"`
	RejectedChecks int64            `json:"rejected_checks"`
	UniqueCallers  int64            `json:"unique_callers"`
	TopRejected    []*IdentityStats `json:"top_rejected"`
	UptimeSeconds  int64            `json:"uptime_seconds"`
	StartTime      time.Time        `json:"start_time"`
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		identityStats: make(map[string]*IdentityStats),
		startTime:     time.Now(),
	}
}

// RecordCheck records one admission decision for identity.
func (c *Collector) RecordCheck(identity string, admitted bool) {
	c.totalChecks.Add(1)
	if admitted {
		c.admittedChecks.Add(1)
	} else {
		c.rejectedChecks.Add(1)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.identityStats[identity]
	if !ok {
		stats = &IdentityStats{
			Identity:     identity,
			FirstCheckAt: time.Now(),
		}
		c.identityStats[identity] = stats
	}

	stats.TotalChecks++
	if admitted {
		stats.AdmittedChecks++
	} else {
		stats.RejectedChecks++
	}
	stats.LastCheckAt = time.Now()
}

// GetSnapshot returns a copy of the current counters. TopRejected holds the
// ten identities with the most rejections, most-rejected first.
func (c *Collector) GetSnapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	top := make([]*IdentityStats, 0, len(c.identityStats))
	for _, stats := range c.identityStats {
		clone := *stats
		top = append(top, &clone)
	}

	sort.Slice(top, func(i, j int) bool {
		return top[i].RejectedChecks > top[j].RejectedChecks
	})
	if len(top) > 10 {
		top = top[:10]
	}

	return &Snapshot{
		TotalChecks:    c.totalChecks.Load(),
		AdmittedChecks: c.admittedChecks.Load(),
		RejectedChecks: c.rejectedChecks.Load(),
		UniqueCallers:  int64(len(c.identityStats)),
		TopRejected:    top,
		UptimeSeconds:  int64(time.Since(c.startTime).Seconds()),
		StartTime:      c.startTime,
	}
}
