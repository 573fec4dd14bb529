package handlers

import (
	"net/http"

	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/logger"
)

// Stats aggregates App counts by status.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := d.Store.GetStats(r.Context())
		if err != nil {
			d.Logger.Error("stats failed", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "registry unavailable")
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}
