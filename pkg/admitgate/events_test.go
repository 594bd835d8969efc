package admitgate

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestLogEventsThrottled(t *testing.T) {
	var buf bytes.Buffer
	sink := LogEvents{Logger: log.New(&buf, "", 0)}

	sink.Throttled(ThrottleEvent{
		Identity:     "user-42",
		Remaining:    0,
		Capacity:     10,
		RefillRate:   2,
		NextRefillIn: 700 * time.Millisecond,
	})

	got := strings.TrimSpace(buf.String())
	want := "event=throttled capacity=10 identity=user-42 next_refill_in_ms=700 refill_rate=2 remaining_tokens=0"
	if got != want {
		t.Errorf("logged %q, want %q", got, want)
	}
}

func TestLogEventsRecovered(t *testing.T) {
	var buf bytes.Buffer
	sink := LogEvents{Logger: log.New(&buf, "", 0)}

	sink.Recovered(RecoveryEvent{Identity: "user-42", Remaining: 1, Capacity: 10})

	got := strings.TrimSpace(buf.String())
	want := "event=recovered capacity=10 identity=user-42 remaining_tokens=1"
	if got != want {
		t.Errorf("logged %q, want %q", got, want)
	}
}

func TestLogEventsQuotesAwkwardIdentities(t *testing.T) {
	var buf bytes.Buffer
	sink := LogEvents{Logger: log.New(&buf, "", 0)}

	sink.Recovered(RecoveryEvent{Identity: `user "a" b`, Remaining: 1, Capacity: 10})

	if !strings.Contains(buf.String(), `identity="user \"a\" b"`) {
		t.Errorf("identity not quoted: %q", buf.String())
	}
}
