package handlers

import (
	"errors"
	"log"

	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ChatHandler struct {
	chats repo.ChatRepoInterface
}

func NewChatHandler(chats repo.ChatRepoInterface) *ChatHandler {
	return &ChatHandler{chats: chats}
}

func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)

	chats, err := h.chats.ListChats(c.Context(), userID, c.QueryInt("limit"))
	if err != nil {
		log.Println("list chats:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list chats",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"chats": chats,
	})
}

// GetChatMessages returns the full transcript of one owned chat, oldest
// message first.
func (h *ChatHandler) GetChatMessages(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)
	slug := c.Params("slug")

	chat, err := h.chats.GetChatBySlug(c.Context(), slug, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Chat not found",
			})
		}
		log.Println("get chat:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get chat",
		})
	}

	msgs, err := h.chats.GetMessages(c.Context(), chat.ID)
	if err != nil {
		log.Println("get messages:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get messages",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"chat":     chat,
		"messages": msgs,
	})
}
