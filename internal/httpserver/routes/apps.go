package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/httpserver/handlers"
)

func init() { Register(registerApps, middleware.Timeout(15*time.Second)) }

func registerApps(r chi.Router, d deps.Deps) {
	r.Route("/api/apps", func(r chi.Router) {
		r.Get("/", handlers.ListApps(d))
		r.Post("/", handlers.AddApp(d))
		r.Get("/{id}", handlers.GetApp(d))
		r.Delete("/{id}", handlers.DeleteApp(d))
		r.Patch("/{id}/notes", handlers.UpdateNotes(d))
		r.Get("/{id}/history", handlers.History(d))
		r.Get("/{id}/screenshot", handlers.Screenshot(d))
	})
}
