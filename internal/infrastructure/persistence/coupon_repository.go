package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCouponRepository implements CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByID finds a coupon within a store
func (r *GormCouponRepository) FindByID(ctx context.Context, storeID string, id uuid.UUID) (*coupon.Coupon, error) {
	var c coupon.Coupon
	if err := r.db.WithContext(ctx).Where("store_id = ? AND id = ?", storeID, id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindByCode finds a coupon by its normalized code
func (r *GormCouponRepository) FindByCode(ctx context.Context, storeID, code string) (*coupon.Coupon, error) {
	var c coupon.Coupon
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND code = ?", storeID, coupon.NormalizeCode(code)).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindAll returns the store's coupons ordered by code
func (r *GormCouponRepository) FindAll(ctx context.Context, storeID string) ([]coupon.Coupon, error) {
	var coupons []coupon.Coupon
	if err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("code ASC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// ExistsByCode checks whether a coupon other than excludeID uses the code
func (r *GormCouponRepository) ExistsByCode(ctx context.Context, storeID, code string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&coupon.Coupon{}).
		Where("store_id = ? AND code = ?", storeID, coupon.NormalizeCode(code))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save creates or updates a coupon
func (r *GormCouponRepository) Save(ctx context.Context, c *coupon.Coupon) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete removes a coupon
func (r *GormCouponRepository) Delete(ctx context.Context, storeID string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("store_id = ? AND id = ?", storeID, id).Delete(&coupon.Coupon{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
