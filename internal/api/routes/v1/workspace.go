package v1

import (
	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/config"
	"sparkle-backend/internal/handlers"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerWorkspace(r fiber.Router, deps Deps) {
	workspaceRepo := repo.NewWorkspaceRepository(config.DB)
	billingRepo := repo.NewBillingRepository(config.DB)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceRepo, billingRepo)

	required := auth.Required(deps.Cfg.JWTSecret)

	r.Get("/projects", required, workspaceHandler.ListProjects)
	r.Post("/projects", required, workspaceHandler.CreateProject)
	r.Get("/bookmarks", required, workspaceHandler.ListBookmarks)
	r.Post("/bookmarks", required, workspaceHandler.CreateBookmark)
}
