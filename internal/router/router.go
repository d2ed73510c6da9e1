package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scientia-api/internal/config"
	"github.com/noah-isme/scientia-api/internal/handler"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Health            fiber.Handler
	AuthHandler       *handler.AuthHandler
	ProfileHandler    *handler.ProfileHandler
	CatalogHandler    *handler.CatalogHandler
	RosterHandler     *handler.RosterHandler
	AttendanceHandler *handler.AttendanceHandler
	MarkHandler       *handler.MarkHandler
	FeeHandler        *handler.FeeHandler
	TimetableHandler  *handler.TimetableHandler
	RemovalHandler    *handler.RemovalHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	if deps.Health != nil {
		api.Get("/health", deps.Health)
	}
	api.Get("/metrics", observability.MetricsHandler())

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), middleware.RateLimit("auth", 20, time.Minute))
	}

	// Use provided JWT middleware, or reject everything if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return fiber.ErrUnauthorized }
	}
	secured := api.Group("", jwtMiddleware)

	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(secured)
	}
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(secured)
	}
	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(secured)
	}
	if deps.MarkHandler != nil {
		deps.MarkHandler.Register(secured)
	}
	if deps.FeeHandler != nil {
		deps.FeeHandler.Register(secured)
	}
	if deps.TimetableHandler != nil {
		deps.TimetableHandler.Register(secured)
	}
	if deps.RosterHandler != nil {
		deps.RosterHandler.Register(secured)
	}
	if deps.RemovalHandler != nil {
		deps.RemovalHandler.Register(secured)
	}
}
