package store

import "context"

// StoreRepository defines the interface for store persistence
type StoreRepository interface {
	// FindByID finds a store by its ID
	FindByID(ctx context.Context, id string) (*Store, error)

	// FindAll returns every store ordered by ID
	FindAll(ctx context.Context) ([]Store, error)

	// Count counts all stores
	Count(ctx context.Context) (int64, error)

	// Save creates or updates a store
	Save(ctx context.Context, st *Store) error
}
