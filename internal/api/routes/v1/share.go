package v1

import (
	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/config"
	"sparkle-backend/internal/handlers"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerShare(r fiber.Router, deps Deps) {
	shareRepo := repo.NewShareRepository(config.DB)
	chatRepo := repo.NewChatRepository(config.DB)
	shareHandler := handlers.NewShareHandler(shareRepo, chatRepo)

	required := auth.Required(deps.Cfg.JWTSecret)

	r.Post("/chats/:slug/share", required, shareHandler.ShareChat)
	r.Post("/projects/:id/share", required, shareHandler.ShareProject)
	r.Post("/bookmarks/:id/share", required, shareHandler.ShareBookmark)

	// Read access by key alone; a logged-in visitor is recorded as viewer.
	r.Get("/shared/chats/:key", auth.Optional(deps.Cfg.JWTSecret), shareHandler.GetSharedChat)
}
