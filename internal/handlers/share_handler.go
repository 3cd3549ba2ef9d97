package handlers

import (
	"errors"
	"log"
	"strconv"

	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ShareHandler struct {
	shares repo.ShareRepoInterface
	chats  repo.ChatRepoInterface
}

func NewShareHandler(shares repo.ShareRepoInterface, chats repo.ChatRepoInterface) *ShareHandler {
	return &ShareHandler{shares: shares, chats: chats}
}

// ShareChat returns the chat's share key, creating it on first call.
// Calling it again returns the same key.
func (h *ShareHandler) ShareChat(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)

	key, err := h.shares.EnsureChatShareKey(c.Context(), c.Params("slug"), userID)
	if err != nil {
		return shareError(c, "chat", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"share_key": key,
	})
}

func (h *ShareHandler) ShareProject(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	key, err := h.shares.EnsureProjectShareKey(c.Context(), id, userID)
	if err != nil {
		return shareError(c, "project", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"share_key": key,
	})
}

func (h *ShareHandler) ShareBookmark(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid bookmark ID",
		})
	}

	key, err := h.shares.EnsureBookmarkShareKey(c.Context(), id, userID)
	if err != nil {
		return shareError(c, "bookmark", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"share_key": key,
	})
}

// GetSharedChat resolves a share key to a read-only transcript. No auth:
// anyone holding the key may read. An authenticated caller is additionally
// recorded as a viewer.
func (h *ShareHandler) GetSharedChat(c *fiber.Ctx) error {
	chat, err := h.shares.GetChatByShareKey(c.Context(), c.Params("key"))
	if err != nil {
		return shareError(c, "chat", err)
	}

	if userID, ok := auth.UserIDFromCtx(c); ok && userID != chat.UserID {
		if err := h.shares.AddChatViewer(c.Context(), chat.ID, userID); err != nil {
			log.Println("add viewer:", err)
		}
	}

	msgs, err := h.chats.GetMessages(c.Context(), chat.ID)
	if err != nil {
		log.Println("get shared messages:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get messages",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"title":    chat.Title,
		"messages": msgs,
	})
}

func shareError(c *fiber.Ctx, kind string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	}
	log.Printf("share %s: %v", kind, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to share",
	})
}
