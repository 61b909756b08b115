package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fasilkom-dev/siakad-api/internal/config"
	"github.com/fasilkom-dev/siakad-api/internal/handler"
	"github.com/fasilkom-dev/siakad-api/internal/middleware"
	"github.com/fasilkom-dev/siakad-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ApplicationHandler  *handler.ApplicationHandler
	DocumentHandler     *handler.DocumentHandler
	DashboardHandler    *handler.DashboardHandler
	RevalidationHandler *handler.RevalidationHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
	HealthProbes        map[string]handler.Probe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ApplicationHandler != nil {
		applications := api.Group("/applications", jwtMiddleware, middleware.RateLimit("applications", 30, time.Minute))
		deps.ApplicationHandler.Register(applications)

		if deps.DocumentHandler != nil {
			deps.DocumentHandler.Register(applications)
		}
	}

	if deps.DashboardHandler != nil {
		dashboard := api.Group("/dashboard", jwtMiddleware)
		deps.DashboardHandler.Register(dashboard)
	}

	if deps.RevalidationHandler != nil {
		revalidations := api.Group("/revalidations", jwtMiddleware)
		deps.RevalidationHandler.Register(revalidations)
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware, middleware.RequireRole(middleware.RoleAdmin))
		deps.ActivityHandler.Register(activities)
	}
}
