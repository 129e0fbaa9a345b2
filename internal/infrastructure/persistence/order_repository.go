package persistence

import (
	"context"
	"time"

	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// FindByGatewayPaymentID finds the order a gateway payment belongs to
func (r *GormOrderRepository) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "gateway_payment_id = ?", paymentID).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// FindByPhone returns a customer's orders newest first
func (r *GormOrderRepository) FindByPhone(ctx context.Context, storeID, phone string) ([]order.Order, error) {
	query := r.db.WithContext(ctx).Where("customer_phone = ?", phone)
	if storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}
	var orders []order.Order
	if err := query.Order("created_at DESC").Limit(100).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// List returns one page of a store's orders, newest first unless the filter
// sorts otherwise. Without a status filter cancelled orders are hidden.
func (r *GormOrderRepository) List(ctx context.Context, storeID string, filter order.ListFilter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{}).Where("store_id = ?", storeID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status <> ?", order.StatusCancelled)
	}
	if filter.Phone != "" {
		query = query.Where("customer_phone = ?", filter.Phone)
	}
	if filter.Search != "" {
		like := "%" + escapeLike(filter.Search) + "%"
		query = query.Where("(id LIKE ? ESCAPE '\\' OR customer_name LIKE ? ESCAPE '\\')", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	if err := query.Order(orderClause(filter.OrderBy, filter.OrderDir, OrderSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ExistsByID checks whether an order ID is taken
func (r *GormOrderRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// Save writes the mutable columns of an order with an optimistic version
// check. The stored version must equal o.Version; on success both move to
// o.Version+1. A stale copy gets shared.ErrConcurrencyConflict.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	current := o.Version
	o.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND version = ?", o.ID, current).
		Updates(map[string]any{
			"status":              o.Status,
			"is_paid":             o.IsPaid,
			"paid_at":             o.PaidAt,
			"cancel_reason":       o.CancelReason,
			"gateway":             o.Gateway,
			"gateway_customer_id": o.GatewayCustomerID,
			"gateway_payment_id":  o.GatewayPaymentID,
			"pix_payload":         o.PixPayload,
			"pix_qr_code_image":   o.PixQRCodeImage,
			"invoice_url":         o.InvoiceURL,
			"version":             current + 1,
			"updated_at":          o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		exists, err := r.ExistsByID(ctx, o.ID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	o.Version = current + 1
	return nil
}

// CountByStatus counts a store's orders per status
func (r *GormOrderRepository) CountByStatus(ctx context.Context, storeID string) ([]order.StatusCount, error) {
	var rows []order.StatusCount
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("status, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

type revenueRow struct {
	Total decimal.NullDecimal
	Count int64
}

// SumRevenue sums totals of paid or non-cancelled orders created at or after since
func (r *GormOrderRepository) SumRevenue(ctx context.Context, storeID string, since *time.Time) (order.Revenue, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("SUM(total) AS total, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Where("(is_paid = ? OR status <> ?)", true, order.StatusCancelled)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var row revenueRow
	if err := query.Scan(&row).Error; err != nil {
		return order.Revenue{}, err
	}
	rev := order.Revenue{Total: decimal.Zero, Count: row.Count}
	if row.Total.Valid {
		rev.Total = row.Total.Decimal.Round(2)
	}
	return rev, nil
}

// FindAwaitingPayment returns unpaid orders with a gateway payment created in [from, to)
func (r *GormOrderRepository) FindAwaitingPayment(ctx context.Context, from, to time.Time, limit int) ([]order.Order, error) {
	var orders []order.Order
	err := r.db.WithContext(ctx).
		Where("is_paid = ? AND status <> ? AND gateway_payment_id <> ''", false, order.StatusCancelled).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
