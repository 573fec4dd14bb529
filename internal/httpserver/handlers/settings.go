package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/TWeb79/appscout/internal/discovery"
	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/logger"
)

type targetHostRequest struct {
	Host string `json:"host"`
}

type targetHostResponse struct {
	Host    string `json:"host"`
	Default string `json:"default"`
}

// GetTargetHost reports the host the next scan will probe.
func GetTargetHost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, targetHostResponse{
			Host:    d.Orchestrator.TargetHost(r.Context()),
			Default: d.DefaultHost,
		})
	}
}

// SetTargetHost stores a runtime override of the probed host. An empty
// host clears the override back to the configured default.
func SetTargetHost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req targetHostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		host := strings.TrimSpace(req.Host)
		if strings.ContainsAny(host, " /:") {
			respondError(w, http.StatusBadRequest, "host must be a bare hostname or IP")
			return
		}

		if err := d.Store.SetSetting(r.Context(), discovery.SettingTargetHost, host); err != nil {
			d.Logger.Error("target host update failed", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}

		d.Logger.Info("target host updated", logger.String("host", host))
		respondJSON(w, http.StatusOK, targetHostResponse{
			Host:    d.Orchestrator.TargetHost(r.Context()),
			Default: d.DefaultHost,
		})
	}
}
