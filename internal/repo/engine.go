package repo

import (
	"context"
	"sparkle-backend/internal/models"

	"gorm.io/gorm"
)

type EngineRepo struct {
	db *gorm.DB
}

type EngineRepoInterface interface {
	GetByIDs(ctx context.Context, ids []uint64) ([]models.Engine, error)
	GetDefaultCategory(ctx context.Context) (*models.EngineCategory, error)
	ListCategories(ctx context.Context) ([]models.EngineCategory, error)
	ListEngines(ctx context.Context, categoryID uint64) ([]models.Engine, error)
}

func NewEngineRepository(db *gorm.DB) EngineRepoInterface {
	return &EngineRepo{db: db}
}

func (r *EngineRepo) GetByIDs(ctx context.Context, ids []uint64) ([]models.Engine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var engines []models.Engine
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id IN ?", ids).
		Find(&engines).Error
	return engines, err
}

func (r *EngineRepo) GetDefaultCategory(ctx context.Context) (*models.EngineCategory, error) {
	var cat models.EngineCategory
	if err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *EngineRepo) ListCategories(ctx context.Context) ([]models.EngineCategory, error) {
	var cats []models.EngineCategory
	err := r.db.WithContext(ctx).Order("id ASC").Find(&cats).Error
	return cats, err
}

func (r *EngineRepo) ListEngines(ctx context.Context, categoryID uint64) ([]models.Engine, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if categoryID > 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var engines []models.Engine
	err := q.Find(&engines).Error
	return engines, err
}
