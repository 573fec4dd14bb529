package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/TWeb79/appscout/internal/discovery"
	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/logger"
)

type scanRequest struct {
	Mode        string `json:"mode"`
	StartPort   int    `json:"startPort,omitempty"`
	EndPort     int    `json:"endPort,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
	TimeoutMs   int    `json:"timeoutMs,omitempty"`
}

type acceptedResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode,omitempty"`
}

// Scan starts a discovery sweep in the background and answers 202
// immediately; progress streams over the event feed. Only one sweep runs
// at a time.
func Scan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if r.Body != nil {
			// Empty body means a quick scan.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if req.Mode == "" {
			req.Mode = discovery.ModeQuick
		}
		if req.Mode != discovery.ModeQuick && req.Mode != discovery.ModeFull {
			respondError(w, http.StatusBadRequest, "mode must be quick or full")
			return
		}
		if req.StartPort < 0 || req.EndPort > 65535 || req.Concurrency < 0 || req.TimeoutMs < 0 {
			respondError(w, http.StatusBadRequest, "scan parameters out of range")
			return
		}
		opts := discovery.ScanOptions{
			Mode:        req.Mode,
			StartPort:   req.StartPort,
			EndPort:     req.EndPort,
			Concurrency: req.Concurrency,
			Timeout:     time.Duration(req.TimeoutMs) * time.Millisecond,
		}

		if !d.ScanBusy.CompareAndSwap(false, true) {
			respondError(w, http.StatusConflict, "a scan is already running")
			return
		}

		// The sweep outlives this request; it carries its own context.
		go func() {
			defer d.ScanBusy.Store(false)
			if _, err := d.Orchestrator.RunScan(context.Background(), opts); err != nil {
				d.Logger.Error("background scan failed",
					logger.String("mode", opts.Mode),
					logger.Error(err))
			}
		}()

		respondJSON(w, http.StatusAccepted, acceptedResponse{Status: "scan started", Mode: opts.Mode})
	}
}

// HealthCheck triggers an immediate health sweep over all registered
// apps via the scheduler and answers 202.
func HealthCheck(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.HealthTrigger <- struct{}{}:
			d.Logger.Info("manual health sweep triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			respondJSON(w, http.StatusAccepted, acceptedResponse{Status: "health check started"})
		default:
			respondError(w, http.StatusTooManyRequests, "a health sweep is already in progress")
		}
	}
}

// Screenshots refreshes screenshots of all online apps in the background.
func Screenshots(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if _, _, err := d.Orchestrator.CaptureAll(context.Background()); err != nil {
				d.Logger.Error("screenshot sweep failed", logger.Error(err))
			}
		}()
		respondJSON(w, http.StatusAccepted, acceptedResponse{Status: "screenshot update started"})
	}
}
