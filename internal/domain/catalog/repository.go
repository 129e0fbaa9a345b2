package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category within a store
	FindByID(ctx context.Context, storeID string, id uuid.UUID) (*Category, error)

	// FindAll returns the store's categories ordered by sort order then name
	FindAll(ctx context.Context, storeID string) ([]Category, error)

	// Count counts the store's categories
	Count(ctx context.Context, storeID string) (int64, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error

	// DeleteWithProducts removes a category and every product in it atomically
	DeleteWithProducts(ctx context.Context, storeID string, id uuid.UUID) error
}

// ProductFilter narrows product listings
type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product within a store
	FindByID(ctx context.Context, storeID string, id uuid.UUID) (*Product, error)

	// FindAll returns the store's products matching the filter, ordered by name
	FindAll(ctx context.Context, storeID string, filter ProductFilter) ([]Product, error)

	// FindByIDs loads several products of one store at once
	FindByIDs(ctx context.Context, storeID string, ids []uuid.UUID) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete removes a product
	Delete(ctx context.Context, storeID string, id uuid.UUID) error
}
