package persistence

import (
	"context"
	"sort"

	"github.com/japabox/storefront/internal/domain/store"
	"gorm.io/gorm"
)

// GormStoreRepository implements StoreRepository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID finds a store by its ID
func (r *GormStoreRepository) FindByID(ctx context.Context, id string) (*store.Store, error) {
	var st store.Store
	if err := r.db.WithContext(ctx).First(&st, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}

// FindAll returns every store ordered numerically by ID
func (r *GormStoreRepository) FindAll(ctx context.Context) ([]store.Store, error) {
	var stores []store.Store
	if err := r.db.WithContext(ctx).Find(&stores).Error; err != nil {
		return nil, err
	}
	sort.Slice(stores, func(i, j int) bool { return store.LessID(stores[i].ID, stores[j].ID) })
	return stores, nil
}

// Count counts all stores
func (r *GormStoreRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&store.Store{}).Count(&n).Error
	return n, err
}

// Save creates or updates a store
func (r *GormStoreRepository) Save(ctx context.Context, st *store.Store) error {
	return r.db.WithContext(ctx).Save(st).Error
}
