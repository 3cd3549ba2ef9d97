package handlers

import (
	"log"

	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

type EngineHandler struct {
	engines repo.EngineRepoInterface
}

func NewEngineHandler(engines repo.EngineRepoInterface) *EngineHandler {
	return &EngineHandler{engines: engines}
}

func (h *EngineHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.engines.ListCategories(c.Context())
	if err != nil {
		log.Println("list categories:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list categories",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"categories": categories,
	})
}

func (h *EngineHandler) ListEngines(c *fiber.Ctx) error {
	engines, err := h.engines.ListEngines(c.Context(), uint64(c.QueryInt("category")))
	if err != nil {
		log.Println("list engines:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list engines",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"engines": engines,
	})
}
