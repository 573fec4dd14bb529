package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/httpserver/handlers"
)

// No per-route timeout: the event stream stays open until the client
// disconnects.
func init() { Register(registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	r.Get("/api/events", handlers.Events(d))
}
