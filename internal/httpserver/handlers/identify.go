package handlers

import (
	"net/http"

	"github.com/TWeb79/appscout/internal/httpserver/deps"
)

type identifyStatusResponse struct {
	Available bool   `json:"available"`
	Fallback  string `json:"fallback"`
}

// IdentifyStatus reports whether the identification collaborator answers.
// Discovery works either way; without it the rule table names services.
func IdentifyStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, identifyStatusResponse{
			Available: d.Identifier.Available(r.Context()),
			Fallback:  "rules",
		})
	}
}
