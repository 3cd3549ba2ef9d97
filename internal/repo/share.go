package repo

import (
	"context"
	"sparkle-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShareRepo struct {
	db *gorm.DB
}

type ShareRepoInterface interface {
	EnsureChatShareKey(ctx context.Context, slug string, userID uint64) (string, error)
	EnsureProjectShareKey(ctx context.Context, id uint64, userID uint64) (string, error)
	EnsureBookmarkShareKey(ctx context.Context, id uint64, userID uint64) (string, error)
	GetChatByShareKey(ctx context.Context, key string) (*models.Chat, error)
	AddChatViewer(ctx context.Context, chatID uint64, userID uint64) error
}

func NewShareRepository(db *gorm.DB) ShareRepoInterface {
	return &ShareRepo{db: db}
}

// EnsureChatShareKey returns the chat's share key, generating one on the
// first request. Re-requesting returns the same key.
func (r *ShareRepo) EnsureChatShareKey(ctx context.Context, slug string, userID uint64) (string, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND user_id = ?", slug, userID).
		First(&chat).Error; err != nil {
		return "", err
	}
	return r.ensureKey(ctx, &chat, chat.ShareKey)
}

func (r *ShareRepo) EnsureProjectShareKey(ctx context.Context, id uint64, userID uint64) (string, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&project).Error; err != nil {
		return "", err
	}
	return r.ensureKey(ctx, &project, project.ShareKey)
}

func (r *ShareRepo) EnsureBookmarkShareKey(ctx context.Context, id uint64, userID uint64) (string, error) {
	var bookmark models.Bookmark
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&bookmark).Error; err != nil {
		return "", err
	}
	return r.ensureKey(ctx, &bookmark, bookmark.ShareKey)
}

// ensureKey generates the key with a conditional update so two concurrent
// first-share requests cannot each mint one. The loser of the race re-reads
// the winner's key.
func (r *ShareRepo) ensureKey(ctx context.Context, record any, current *string) (string, error) {
	if current != nil && *current != "" {
		return *current, nil
	}

	key := uuid.NewString()
	res := r.db.WithContext(ctx).Model(record).
		Where("share_key IS NULL").
		UpdateColumn("share_key", key)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 1 {
		return key, nil
	}

	// another request won; the record carries its key now
	var keys []string
	if err := r.db.WithContext(ctx).Model(record).
		Pluck("share_key", &keys).Error; err != nil {
		return "", err
	}
	if len(keys) == 0 || keys[0] == "" {
		return "", gorm.ErrRecordNotFound
	}
	return keys[0], nil
}

func (r *ShareRepo) GetChatByShareKey(ctx context.Context, key string) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).
		Where("share_key = ?", key).
		First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// AddChatViewer records a non-owning read relation.
func (r *ShareRepo) AddChatViewer(ctx context.Context, chatID uint64, userID uint64) error {
	chat := models.Chat{ID: chatID}
	return r.db.WithContext(ctx).Model(&chat).
		Association("Viewers").
		Append(&models.User{ID: userID})
}
