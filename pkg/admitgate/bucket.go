package admitgate

import "time"

// tokenBucket holds the admission budget for a single identity.
// Refills are quantized to whole intervals: a partial interval never grants
// partial tokens. The bucket is not safe for concurrent use on its own; the
// registry lock covers it.
type tokenBucket struct {
	capacity       int64         // Maximum tokens (burst size)
	refillRate     int64         // Tokens granted per whole interval (0 = no organic recovery)
	refillInterval time.Duration // Length of one refill interval
	tokens         float64       // Current available tokens, 0 <= tokens <= capacity
	lastRefill     time.Time     // Start of the interval accounting window
}

// newTokenBucket creates a fully charged bucket. Callers validate capacity and
// interval up front; a negative refill rate is normalized to zero ("no organic
// recovery" per the configuration contract).
func newTokenBucket(capacity, refillRate int64, interval time.Duration, now time.Time) *tokenBucket {
	if refillRate < 0 {
		refillRate = 0
	}
	return &tokenBucket{
		capacity:       capacity,
		refillRate:     refillRate,
		refillInterval: interval,
		tokens:         float64(capacity),
		lastRefill:     now,
	}
}

// refill grants refillRate tokens per whole interval elapsed since lastRefill,
// clamped at capacity. The fractional remainder of the current interval is
// discarded, not carried forward: lastRefill is set to now, not advanced by
// whole intervals. Callers that are not interval-aligned are slightly
// under-refilled; this matches the historical behavior and is relied upon.
// A clock that appears to move backward yields elapsed < 0 and grants nothing.
func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < b.refillInterval {
		return
	}
	intervals := int64(elapsed / b.refillInterval)
	b.tokens += float64(intervals * b.refillRate)
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
	b.lastRefill = now
}

// takeToken consumes one token if at least one is available.
func (b *tokenBucket) takeToken() bool {
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// nextRefillIn reports how long until the current interval completes.
// Returns 0 when a refill is already due.
func (b *tokenBucket) nextRefillIn(now time.Time) time.Duration {
	d := b.refillInterval - now.Sub(b.lastRefill)
	if d < 0 {
		return 0
	}
	return d
}

// remaining reports whole tokens currently available.
func (b *tokenBucket) remaining() int64 {
	return int64(b.tokens)
}
