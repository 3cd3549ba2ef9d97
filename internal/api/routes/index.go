package routes

import (
	v1 "sparkle-backend/internal/api/routes/v1"
	"sparkle-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

func Register(app *fiber.App, deps v1.Deps) {
	// API v1 group
	api := app.Group("/api")
	v1Group := api.Group("/v1")

	// Register v1 routes
	v1.RegisterRoutes(v1Group, deps)

	// Streaming chat sessions live outside the versioned REST surface; the
	// upgrade guard in the server covers this path.
	app.Get("/ws", session.Handler(deps.Processor, deps.Cfg.SessionIdleTimeout))
}
