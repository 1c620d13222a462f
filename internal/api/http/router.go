package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bridge/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Bridge      *handlers.BridgeHandler
	ServiceAuth *auth.ServiceAuth
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	bridge := app.Group("/bridge", cfg.ServiceAuth.Handle)
	bridge.Get("/status", cfg.Bridge.Status)
	bridge.Post("/tickets/:id/thread", cfg.Bridge.CreateThread)
	bridge.Delete("/tickets/:id/thread", cfg.Bridge.DeleteThread)
	bridge.Post("/tickets/:id/reply", cfg.Bridge.Reply)
	bridge.Patch("/tickets/:id/status", cfg.Bridge.UpdateStatus)
}
