package v1

import (
	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/config"
	"sparkle-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Deps carries the wiring that route registration cannot build from the
// database handle alone.
type Deps struct {
	Cfg       config.Config
	OTP       *auth.OTPStore
	Processor *session.Processor
}

func RegisterRoutes(r fiber.Router, deps Deps) {
	registerHealth(r)
	registerAuth(r, deps)

	registerChat(r, deps)
	registerEngines(r)
	registerShare(r, deps)
	registerWorkspace(r, deps)
}
