package coupon

import (
	"context"

	"github.com/google/uuid"
)

// CouponRepository defines the interface for coupon persistence
type CouponRepository interface {
	// FindByID finds a coupon within a store
	FindByID(ctx context.Context, storeID string, id uuid.UUID) (*Coupon, error)

	// FindByCode finds a coupon by its normalized code
	FindByCode(ctx context.Context, storeID, code string) (*Coupon, error)

	// FindAll returns the store's coupons ordered by code
	FindAll(ctx context.Context, storeID string) ([]Coupon, error)

	// ExistsByCode checks whether another coupon already uses the code
	ExistsByCode(ctx context.Context, storeID, code string, excludeID *uuid.UUID) (bool, error)

	// Save creates or updates a coupon
	Save(ctx context.Context, c *Coupon) error

	// Delete removes a coupon
	Delete(ctx context.Context, storeID string, id uuid.UUID) error
}
