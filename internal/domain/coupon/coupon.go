package coupon

import (
	"regexp"
	"strings"
	"time"

	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,30}$`)

// ErrCouponNotFound is returned when a code is unknown or inactive
var ErrCouponNotFound = shared.NewDomainError("COUPON_NOT_FOUND", "Cupom inválido ou expirado")

// Coupon grants a percentage discount on the order subtotal
type Coupon struct {
	shared.BaseAggregateRoot
	StoreID            string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_coupon_store_code,priority:1"`
	Code               string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_coupon_store_code,priority:2"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Active             bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCode uppercases and trims a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCoupon creates an active coupon
func NewCoupon(storeID, code string, pct decimal.Decimal) (*Coupon, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, shared.NewDomainError("INVALID_STORE_ID", "Store ID cannot be empty")
	}
	code = NormalizeCode(code)
	if err := validate(code, pct); err != nil {
		return nil, err
	}
	c := &Coupon{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		StoreID:            storeID,
		Code:               code,
		DiscountPercentage: pct.Round(2),
		Active:             true,
	}
	return c, nil
}

// Update changes the code, the percentage and the active flag
func (c *Coupon) Update(code string, pct decimal.Decimal, active bool) error {
	code = NormalizeCode(code)
	if err := validate(code, pct); err != nil {
		return err
	}
	c.Code = code
	c.DiscountPercentage = pct.Round(2)
	c.Active = active
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

func validate(code string, pct decimal.Decimal) error {
	if !codePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_COUPON_CODE", "Coupon code must have 3 to 30 letters, digits, - or _")
	}
	if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount percentage must be greater than 0 and at most 100")
	}
	return nil
}
