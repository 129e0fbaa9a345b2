package store

import (
	"context"

	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/coupon"
)

// SeedRepositories are the repositories a new store and its default content
// are written through
type SeedRepositories interface {
	StoreRepo() StoreRepository
	CategoryRepo() catalog.CategoryRepository
	ProductRepo() catalog.ProductRepository
	CouponRepo() coupon.CouponRepository
}

// TransactionScope runs fn atomically. An error returned by fn rolls back
// every write made through repos.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos SeedRepositories) error) error
}
