package v1

import (
	"sparkle-backend/internal/config"
	"sparkle-backend/internal/handlers"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerEngines(r fiber.Router) {
	engineRepo := repo.NewEngineRepository(config.DB)
	engineHandler := handlers.NewEngineHandler(engineRepo)

	// The catalog is public; selection is enforced per plan at send time.
	r.Get("/categories", engineHandler.ListCategories)
	r.Get("/engines", engineHandler.ListEngines)
}
