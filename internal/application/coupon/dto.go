package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/shopspring/decimal"
)

// CreateCouponRequest represents a request to create a coupon
type CreateCouponRequest struct {
	Code               string          `json:"code" binding:"required,min=3,max=30"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}

// UpdateCouponRequest represents a request to update a coupon
type UpdateCouponRequest struct {
	Code               string          `json:"code" binding:"required,min=3,max=30"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Active             bool            `json:"active"`
}

// CouponResponse represents a coupon in API responses
type CouponResponse struct {
	ID                 uuid.UUID       `json:"id"`
	StoreID            string          `json:"storeId"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Active             bool            `json:"active"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ToCouponResponse converts a coupon to its response
func ToCouponResponse(c *coupon.Coupon) CouponResponse {
	return CouponResponse{
		ID:                 c.ID,
		StoreID:            c.StoreID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		Active:             c.Active,
		UpdatedAt:          c.UpdatedAt,
	}
}
