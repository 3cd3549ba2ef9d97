package v1

import (
	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/config"
	"sparkle-backend/internal/handlers"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerChat(r fiber.Router, deps Deps) {
	chatRepo := repo.NewChatRepository(config.DB)
	chatHandler := handlers.NewChatHandler(chatRepo)

	required := auth.Required(deps.Cfg.JWTSecret)

	r.Get("/chats", required, chatHandler.ListChats)
	r.Get("/chats/:slug/messages", required, chatHandler.GetChatMessages)
}
