// Package admitgate provides per-identity admission control for long-lived
// multi-tenant servers.
//
// Each caller identity gets an independent token bucket: bursts are allowed
// up to the bucket capacity, sustained load is bounded by the refill rate,
// and refills are quantized to whole intervals (a partial interval grants
// nothing). Records for idle identities are reclaimed by a background sweep
// so memory stays bounded.
//
// # Quick Start
//
//	ctrl, err := admitgate.New(
//	    admitgate.WithConfig(admitgate.Config{
//	        Capacity:         10,
//	        RefillRate:       2,
//	        RefillIntervalMs: 1000,
//	        IdleEvictionMs:   600000,
//	        SweepIntervalMs:  60000,
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctrl.Start()
//	defer ctrl.Stop()
//
//	if !ctrl.Allow("user-123") {
//	    // reject the unit of work
//	}
//
// # Transition events
//
// When an identity first runs out of tokens the controller emits a single
// throttled event, and when it next gets a token back it emits a single
// recovered event. Repeated rejections in between stay silent, so a hot
// caller cannot flood the log. Plug in a sink with WithEvents; LogEvents
// writes logfmt lines, NopEvents (the default) discards everything. Events
// are best-effort and never affect admission decisions.
//
// # Concurrency
//
// All operations are safe for concurrent use. One mutex guards the registry;
// the refill-consume-flag update for a check runs atomically under it. The
// reclamation sweeper runs on a ticker and holds the lock only for the
// scan-and-delete step. Pair one Start with one Stop; Stop also clears all
// records and is safe to call without a prior Start.
package admitgate
