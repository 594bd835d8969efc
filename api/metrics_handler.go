package api

import (
	"net/http"

	"github.com/admitgate/admitgate/metrics"
)

// MetricsProvider exposes a point-in-time view of admission counters.
type MetricsProvider interface {
	GetSnapshot() *metrics.Snapshot
}

// MetricsHandler serves GET /metrics.
type MetricsHandler struct {
	provider MetricsProvider
}

// NewMetricsHandler creates a metrics handler.
func NewMetricsHandler(provider MetricsProvider) *MetricsHandler {
	return &MetricsHandler{provider: provider}
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.GetSnapshot())
}
