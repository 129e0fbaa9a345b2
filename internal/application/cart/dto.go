package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/cart"
)

// CreateCartRequest opens a cart for a store
type CreateCartRequest struct {
	StoreID string `json:"storeId" binding:"required,max=20"`
}

// AddLineRequest adds a product with its option selections
type AddLineRequest struct {
	ProductID   uuid.UUID        `json:"productId" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required,min=1,max=99"`
	Observation string           `json:"observation" binding:"max=500"`
	Selections  []cart.Selection `json:"selections" binding:"dive"`
}

// LineRequest converts the request to a domain line request
func (r AddLineRequest) LineRequest() cart.LineRequest {
	return cart.LineRequest{
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		Observation: r.Observation,
		Selections:  r.Selections,
	}
}

// UpdateQuantityRequest changes the quantity of a line; zero removes it
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// ApplyCouponRequest applies a coupon code to a cart
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required,max=30"`
}

// QuoteRequest prices a set of lines without a stored cart
type QuoteRequest struct {
	StoreID    string             `json:"storeId" binding:"required,max=20"`
	Lines      []cart.LineRequest `json:"lines" binding:"required,min=1,max=100"`
	CouponCode string             `json:"couponCode" binding:"max=30"`
	Fulfilment string             `json:"fulfilment" binding:"omitempty,oneof=delivery pickup"`
	Upsell     bool               `json:"upsell"`
}

// CartQuoteRequest selects how a stored cart is quoted
type CartQuoteRequest struct {
	Fulfilment string `json:"fulfilment" form:"fulfilment" binding:"omitempty,oneof=delivery pickup"`
	Upsell     bool   `json:"upsell" form:"upsell"`
}

// CartResponse represents a cart in API responses
type CartResponse struct {
	Token      string      `json:"token"`
	StoreID    string      `json:"storeId"`
	Lines      []cart.Line `json:"lines"`
	CouponCode string      `json:"couponCode,omitempty"`
	ItemCount  int         `json:"itemCount"`
	Totals     cart.Totals `json:"totals"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// ApplyCouponResponse tells whether the coupon was accepted
type ApplyCouponResponse struct {
	Applied bool          `json:"applied"`
	Message string        `json:"message,omitempty"`
	Cart    *CartResponse `json:"cart"`
}

// QuoteResponse is a repriced quote
type QuoteResponse struct {
	StoreID string      `json:"storeId"`
	Lines   []cart.Line `json:"lines"`
	Totals  cart.Totals `json:"totals"`
}

// ToQuoteResponse converts a quote to its response
func ToQuoteResponse(q *Quote) *QuoteResponse {
	return &QuoteResponse{StoreID: q.Store.ID, Lines: q.Lines, Totals: q.Totals}
}
