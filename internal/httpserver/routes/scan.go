package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/httpserver/handlers"
)

func init() { Register(registerScan, middleware.Timeout(15*time.Second)) }

func registerScan(r chi.Router, d deps.Deps) {
	r.Post("/api/scan", handlers.Scan(d))
	r.Post("/api/health-check", handlers.HealthCheck(d))
	r.Post("/api/screenshots", handlers.Screenshots(d))
}
