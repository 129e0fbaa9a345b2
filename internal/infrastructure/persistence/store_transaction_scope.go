package persistence

import (
	"context"

	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/store"
	"gorm.io/gorm"
)

// GormStoreTransactionScope runs store creation inside one GORM transaction
type GormStoreTransactionScope struct {
	db *gorm.DB
}

// NewGormStoreTransactionScope creates a new GormStoreTransactionScope
func NewGormStoreTransactionScope(db *gorm.DB) *GormStoreTransactionScope {
	return &GormStoreTransactionScope{db: db}
}

// Execute runs fn within a transaction, rolling back when it returns an error
func (s *GormStoreTransactionScope) Execute(ctx context.Context, fn func(repos store.SeedRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormSeedRepositories{tx: tx})
	})
}

type gormSeedRepositories struct {
	tx *gorm.DB
}

func (r *gormSeedRepositories) StoreRepo() store.StoreRepository {
	return NewGormStoreRepository(r.tx)
}

func (r *gormSeedRepositories) CategoryRepo() catalog.CategoryRepository {
	return NewGormCategoryRepository(r.tx)
}

func (r *gormSeedRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormSeedRepositories) CouponRepo() coupon.CouponRepository {
	return NewGormCouponRepository(r.tx)
}

var (
	_ store.TransactionScope = (*GormStoreTransactionScope)(nil)
	_ store.SeedRepositories = (*gormSeedRepositories)(nil)
)
