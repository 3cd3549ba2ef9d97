package repo

import (
	"context"
	"sparkle-backend/internal/models"

	"gorm.io/gorm"
)

type WorkspaceRepo struct {
	db *gorm.DB
}

type WorkspaceRepoInterface interface {
	CreateProject(ctx context.Context, p *models.Project) error
	CreateBookmark(ctx context.Context, b *models.Bookmark) error
	ListProjects(ctx context.Context, userID uint64) ([]models.Project, error)
	ListBookmarks(ctx context.Context, userID uint64) ([]models.Bookmark, error)
}

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepoInterface {
	return &WorkspaceRepo{db: db}
}

func (r *WorkspaceRepo) CreateProject(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *WorkspaceRepo) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *WorkspaceRepo) ListProjects(ctx context.Context, userID uint64) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *WorkspaceRepo) ListBookmarks(ctx context.Context, userID uint64) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}
