// Package router configures the monitor daemon's HTTP routes.
//
// Routes configured:
//   - GET /healthz - 200 while the monitor loop runs, 503 otherwise
//   - GET /metrics - Prometheus metrics
//   - GET /status  - JSON snapshot of the monitor state
package router

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/lagscale/pkg/httpx"
	"github.com/HatiCode/lagscale/pkg/loadmonitor"
)

// Monitor is the read-only view of the load monitor the routes need.
type Monitor interface {
	Config() loadmonitor.Config
	Snapshot() loadmonitor.State
	Running() bool
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	ServiceType          string     `json:"serviceType"`
	ServiceID            string     `json:"serviceId"`
	Running              bool       `json:"running"`
	CurrentLagMs         float64    `json:"currentLagMs"`
	LastRequest          *time.Time `json:"lastRequest,omitempty"`
	LowLagSince          *time.Time `json:"lowLagSince,omitempty"`
	ScaleUpThresholdMs   float64    `json:"scaleUpThresholdMs"`
	ScaleDownThresholdMs float64    `json:"scaleDownThresholdMs"`
	ScaleDownSustain     string     `json:"scaleDownSustain"`
	RequestCooldown      string     `json:"requestCooldown"`
}

// SetupRoutes builds the HTTP handler, wrapped in recovery, request ID and
// logging middleware.
func SetupRoutes(logger *slog.Logger, mon Monitor) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandlerWithCheck(func() error {
		if !mon.Running() {
			return errors.New("load monitor not running")
		}
		return nil
	}))

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		if err := httpx.WriteJSON(w, http.StatusOK, newStatus(mon)); err != nil {
			logger.Error("failed to write status", "error", err)
		}
	})

	return httpx.Chain(mux,
		httpx.RecoveryMiddleware(logger),
		httpx.RequestIDMiddleware(),
		httpx.LoggingMiddleware(logger),
	)
}

func newStatus(mon Monitor) StatusResponse {
	cfg := mon.Config()
	state := mon.Snapshot()

	resp := StatusResponse{
		ServiceType:          cfg.ServiceType,
		ServiceID:            cfg.ServiceID,
		Running:              mon.Running(),
		CurrentLagMs:         millis(state.CurrentLag),
		ScaleUpThresholdMs:   millis(cfg.ScaleUpThreshold),
		ScaleDownThresholdMs: millis(cfg.ScaleDownThreshold),
		ScaleDownSustain:     cfg.ScaleDownSustain.String(),
		RequestCooldown:      cfg.RequestCooldown.String(),
	}
	if !state.LastRequest.IsZero() {
		t := state.LastRequest
		resp.LastRequest = &t
	}
	if state.LowLagActive {
		t := state.LowLagStart
		resp.LowLagSince = &t
	}
	return resp
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
