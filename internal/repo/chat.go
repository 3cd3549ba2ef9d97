package repo

import (
	"context"
	"sparkle-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepo struct {
	db *gorm.DB
}

type ChatRepoInterface interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChatBySlug(ctx context.Context, slug string, userID uint64) (*models.Chat, error)
	ListChats(ctx context.Context, userID uint64, limit int) ([]models.Chat, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessageForUser(ctx context.Context, id uint64, userID uint64) (*models.Message, error)
	GetHistory(ctx context.Context, chatID uint64, limit int) ([]models.Message, error)
	GetMessages(ctx context.Context, chatID uint64) ([]models.Message, error)
}

func NewChatRepository(db *gorm.DB) ChatRepoInterface {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) CreateChat(ctx context.Context, chat *models.Chat) error {
	if chat.Slug == "" {
		chat.Slug = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *ChatRepo) GetChatBySlug(ctx context.Context, slug string, userID uint64) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND user_id = ?", slug, userID).
		First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepo) ListChats(ctx context.Context, userID uint64, limit int) ([]models.Chat, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&chats).Error
	return chats, err
}

func (r *ChatRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetMessageForUser resolves a reply-to reference. The join scopes the
// lookup to chats owned by the caller, so a foreign message id reads as
// not found.
func (r *ChatRepo) GetMessageForUser(ctx context.Context, id uint64, userID uint64) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Joins("JOIN chats ON chats.id = messages.chat_id").
		Where("messages.id = ? AND chats.user_id = ?", id, userID).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetHistory returns messages in chronological order.
func (r *ChatRepo) GetHistory(ctx context.Context, chatID uint64, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	// newest window first, then reversed so callers get ASC
	var desc []models.Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&desc).Error; err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		msgs = append(msgs, desc[i])
	}
	return msgs, nil
}

// GetMessages returns the full transcript of a chat in chronological order.
func (r *ChatRepo) GetMessages(ctx context.Context, chatID uint64) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Preload("Engines").
		Find(&msgs).Error
	return msgs, err
}
