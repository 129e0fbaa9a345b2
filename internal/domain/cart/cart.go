package cart

import (
	"strings"
	"time"

	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrLineNotFound is returned for an unknown cart line
var ErrLineNotFound = shared.NewDomainError("LINE_NOT_FOUND", "Cart line not found")

// Cart is a server-side shopping cart addressed by an opaque token
type Cart struct {
	Token      string    `json:"token"`
	StoreID    string    `json:"storeId"`
	Lines      []Line    `json:"lines"`
	CouponCode string    `json:"couponCode,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// New creates an empty cart
func New(token, storeID string) *Cart {
	return &Cart{Token: token, StoreID: storeID, Lines: []Line{}, UpdatedAt: time.Now()}
}

// AddLine appends a priced line
func (c *Cart) AddLine(l Line) {
	c.Lines = append(c.Lines, l)
	c.UpdatedAt = time.Now()
}

// ReplaceLine swaps the line with the same ID for l
func (c *Cart) ReplaceLine(l Line) error {
	for i := range c.Lines {
		if c.Lines[i].ID == l.ID {
			c.Lines[i] = l
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrLineNotFound
}

// UpdateQuantity changes the quantity of a line; zero removes it
func (c *Cart) UpdateQuantity(lineID string, quantity int) error {
	if quantity == 0 {
		return c.RemoveLine(lineID)
	}
	if quantity < 0 || quantity > MaxLineQuantity {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			l := &c.Lines[i]
			l.Quantity = quantity
			l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveLine deletes a line
func (c *Cart) RemoveLine(lineID string) error {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrLineNotFound
}

// Clear empties the cart and drops the coupon
func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.CouponCode = ""
	c.UpdatedAt = time.Now()
}

// SetCoupon stores a coupon code that was already resolved
func (c *Cart) SetCoupon(code string) {
	c.CouponCode = strings.ToUpper(strings.TrimSpace(code))
	c.UpdatedAt = time.Now()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount returns the total quantity across lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}
