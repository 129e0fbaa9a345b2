package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category within a store
func (r *GormCategoryRepository) FindByID(ctx context.Context, storeID string, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ?", storeID, id).
		First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// FindAll returns the store's categories ordered by sort order then name
func (r *GormCategoryRepository) FindAll(ctx context.Context, storeID string) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Count counts the store's categories
func (r *GormCategoryRepository) Count(ctx context.Context, storeID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&catalog.Category{}).Where("store_id = ?", storeID).Count(&n).Error
	return n, err
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// DeleteWithProducts removes a category and its products in one transaction
func (r *GormCategoryRepository) DeleteWithProducts(ctx context.Context, storeID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ? AND category_id = ?", storeID, id).
			Delete(&catalog.Product{}).Error; err != nil {
			return err
		}
		res := tx.Where("store_id = ? AND id = ?", storeID, id).Delete(&catalog.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
