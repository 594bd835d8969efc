package admitgate

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// ThrottleEvent is emitted once per throttling episode, on the request that
// first finds the bucket empty. Repeated rejections stay silent until the
// identity recovers.
type ThrottleEvent struct {
	Identity     string
	Remaining    int64
	Capacity     int64
	RefillRate   int64
	NextRefillIn time.Duration
}

// RecoveryEvent is emitted once per recovery episode, on the first admitted
// request after a throttling episode.
type RecoveryEvent struct {
	Identity  string
	Remaining int64
	Capacity  int64
}

// Events receives transition notifications from the controller. Sinks are
// best-effort side channels and never affect admission decisions; they are
// invoked outside the registry lock and must be safe for concurrent use.
type Events interface {
	Throttled(ThrottleEvent)
	Recovered(RecoveryEvent)
}

// NopEvents discards all events. It is the default sink.
type NopEvents struct{}

func (NopEvents) Throttled(ThrottleEvent) {}
func (NopEvents) Recovered(RecoveryEvent) {}

// LogEvents renders transition events as logfmt lines through a standard
// logger. A nil Logger falls back to the process default.
type LogEvents struct {
	Logger *log.Logger
}

func (s LogEvents) Throttled(e ThrottleEvent) {
	s.logEvent("throttled", map[string]any{
		"identity":          e.Identity,
		"remaining_tokens":  e.Remaining,
		"capacity":          e.Capacity,
		"refill_rate":       e.RefillRate,
		"next_refill_in_ms": e.NextRefillIn.Milliseconds(),
	})
}

func (s LogEvents) Recovered(e RecoveryEvent) {
	s.logEvent("recovered", map[string]any{
		"identity":         e.Identity,
		"remaining_tokens": e.Remaining,
		"capacity":         e.Capacity,
	})
}

func (s LogEvents) logEvent(event string, fields map[string]any) {
	var b strings.Builder
	b.WriteString("event=")
	b.WriteString(event)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[k]))
	}

	if s.Logger != nil {
		s.Logger.Println(b.String())
		return
	}
	log.Println(b.String())
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return quoteIfNeeded(t)
	case int, int64, uint64, bool:
		return fmt.Sprint(t)
	default:
		return quoteIfNeeded(fmt.Sprint(t))
	}
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t\n\"=") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
