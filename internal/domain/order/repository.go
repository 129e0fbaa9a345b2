package order

import (
	"context"
	"time"

	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListFilter narrows the back-office order list
type ListFilter struct {
	shared.Filter
	// Status shows only that status; empty hides cancelled orders
	Status Status
	Phone  string
}

// StatusCount is the number of orders in one status
type StatusCount struct {
	Status Status
	Count  int64
}

// Revenue sums the totals of a set of orders
type Revenue struct {
	Total decimal.Decimal
	Count int64
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by its ID
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByGatewayPaymentID finds the order a gateway payment belongs to
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*Order, error)

	// FindByPhone returns a customer's orders newest first; empty storeID searches all stores
	FindByPhone(ctx context.Context, storeID, phone string) ([]Order, error)

	// List returns one page of a store's orders newest first
	List(ctx context.Context, storeID string, filter ListFilter) ([]Order, int64, error)

	// ExistsByID checks whether an order ID is taken
	ExistsByID(ctx context.Context, id string) (bool, error)

	// Create inserts a new order
	Create(ctx context.Context, o *Order) error

	// Save updates an existing order. A copy whose Version is behind the
	// stored one fails with shared.ErrConcurrencyConflict.
	Save(ctx context.Context, o *Order) error

	// CountByStatus counts a store's orders per status
	CountByStatus(ctx context.Context, storeID string) ([]StatusCount, error)

	// SumRevenue sums the totals of paid or non-cancelled orders created at or after since
	SumRevenue(ctx context.Context, storeID string, since *time.Time) (Revenue, error)

	// FindAwaitingPayment returns unpaid, uncancelled orders with a gateway
	// payment created in [from, to), oldest first
	FindAwaitingPayment(ctx context.Context, from, to time.Time, limit int) ([]Order, error)
}
