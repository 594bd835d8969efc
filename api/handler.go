// Package api exposes the admission controller over JSON HTTP for the
// hosting process and for monitoring.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/admitgate/admitgate/pkg/admitgate"
)

// MetricsRecorder receives admission outcomes for monitoring.
type MetricsRecorder interface {
	RecordCheck(identity string, admitted bool)
}

// Handler serves admission checks and status queries for one controller.
type Handler struct {
	ctrl    *admitgate.Controller
	metrics MetricsRecorder
}

// NewHandler creates an API handler. metrics may be nil.
func NewHandler(ctrl *admitgate.Controller, metrics MetricsRecorder) *Handler {
	return &Handler{ctrl: ctrl, metrics: metrics}
}

// CheckRequest is the body of POST /check.
type CheckRequest struct {
	Identity string `json:"identity"` // Required: stable caller identity (user id, API key, IP)
}

// CheckResponse reports one admission decision.
type CheckResponse struct {
	Admitted     bool  `json:"admitted"`
	Remaining    int64 `json:"remaining"`
	Capacity     int64 `json:"capacity"`
	RetryAfterMs int64 `json:"retry_after_ms,omitempty"`
}

// StatusResponse reports the current bucket state for one identity.
type StatusResponse struct {
	Identity       string `json:"identity"`
	Remaining      int64  `json:"remaining"`
	Capacity       int64  `json:"capacity"`
	RefillRate     int64  `json:"refill_rate"`
	NextRefillInMs int64  `json:"next_refill_in_ms"`
}

// StatsResponse reports registry-wide aggregates.
type StatsResponse struct {
	ActiveIdentities int              `json:"active_identities"`
	TotalTokens      int64            `json:"total_tokens"`
	Config           admitgate.Config `json:"config"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CheckAdmission handles POST /check. A rejected check answers 429 so plain
// HTTP callers can branch on the status code alone.
func (h *Handler) CheckAdmission(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Identity == "" {
		h.sendError(w, http.StatusBadRequest, "missing_identity", admitgate.ErrEmptyIdentity.Error())
		return
	}

	d := h.ctrl.Check(req.Identity)
	if h.metrics != nil {
		h.metrics.RecordCheck(req.Identity, d.Allowed)
	}

	resp := CheckResponse{
		Admitted:     d.Allowed,
		Remaining:    d.Remaining,
		Capacity:     d.Capacity,
		RetryAfterMs: d.RetryAfter.Milliseconds(),
	}

	status := http.StatusOK
	if !d.Allowed {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, resp)
}

// Status handles GET /status/{identity}. A never-seen identity reports a
// fully charged bucket and is not provisioned by the lookup.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if identity == "" {
		h.sendError(w, http.StatusBadRequest, "missing_identity", admitgate.ErrEmptyIdentity.Error())
		return
	}

	st := h.ctrl.Status(identity)
	writeJSON(w, http.StatusOK, StatusResponse{
		Identity:       identity,
		Remaining:      st.Remaining,
		Capacity:       st.Capacity,
		RefillRate:     st.RefillRate,
		NextRefillInMs: st.NextRefillIn.Milliseconds(),
	})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st := h.ctrl.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		ActiveIdentities: st.ActiveIdentities,
		TotalTokens:      st.TotalTokens,
		Config:           st.Config,
	})
}

func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
