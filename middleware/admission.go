// Package middleware provides HTTP middleware for guarding handlers with the
// admission controller.
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/admitgate/admitgate/pkg/admitgate"
)

// KeyFunc extracts a stable caller identity from the request.
type KeyFunc func(*http.Request) string

// ClientIP extracts the caller's IP, preferring proxy headers so the
// middleware works behind a load balancer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client.
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Admission wraps next with an admission check keyed by keyFunc (ClientIP
// when nil). Rejected requests get a 429 with Retry-After and the standard
// X-RateLimit headers.
func Admission(ctrl *admitgate.Controller, keyFunc KeyFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := ctrl.Check(keyFunc(r))

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", d.Capacity))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))

			if !d.Allowed {
				retryAfterSec := int64(d.RetryAfter.Seconds())
				if retryAfterSec == 0 {
					retryAfterSec = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSec))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":          "rate_limit_exceeded",
					"message":        "Too many requests. Please try again later.",
					"retry_after_ms": d.RetryAfter.Milliseconds(),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
