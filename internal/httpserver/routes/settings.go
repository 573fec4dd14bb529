package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/httpserver/handlers"
)

func init() { Register(registerSettings, middleware.Timeout(15*time.Second)) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.Get("/api/settings/target-host", handlers.GetTargetHost(d))
	r.Put("/api/settings/target-host", handlers.SetTargetHost(d))
}
