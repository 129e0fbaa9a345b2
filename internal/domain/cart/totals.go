package cart

import "github.com/shopspring/decimal"

// Fulfilment is how the order reaches the customer
type Fulfilment string

const (
	FulfilmentDelivery Fulfilment = "delivery"
	FulfilmentPickup   Fulfilment = "pickup"
)

// IsValid reports whether f is a known fulfilment
func (f Fulfilment) IsValid() bool {
	return f == FulfilmentDelivery || f == FulfilmentPickup
}

var hundred = decimal.NewFromInt(100)

// Totals is the price breakdown of a cart or order
type Totals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DeliveryFee        decimal.Decimal `json:"deliveryFee"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	CouponCode         string          `json:"couponCode,omitempty"`
	Total              decimal.Decimal `json:"total"`
}

// TotalsInput collects what ComputeTotals needs
type TotalsInput struct {
	Lines       []Line
	Fulfilment  Fulfilment
	DeliveryFee decimal.Decimal
	CouponCode  string
	DiscountPct decimal.Decimal
}

// ComputeTotals sums the lines and applies the delivery fee and the coupon
// discount. The fee is charged for delivery only. The discount applies to
// the cart lines; an upsell line is added at full price.
func ComputeTotals(in TotalsInput) Totals {
	subtotal := decimal.Zero
	discountable := decimal.Zero
	for _, l := range in.Lines {
		subtotal = subtotal.Add(l.LineTotal)
		if !l.Upsell {
			discountable = discountable.Add(l.LineTotal)
		}
	}
	subtotal = subtotal.Round(2)

	fee := decimal.Zero
	if in.Fulfilment == FulfilmentDelivery {
		fee = in.DeliveryFee.Round(2)
	}

	discount := decimal.Zero
	if in.DiscountPct.IsPositive() {
		discount = discountable.Round(2).Mul(in.DiscountPct).Div(hundred).Round(2)
	}

	t := Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Discount:    discount,
		Total:       subtotal.Add(fee).Sub(discount).Round(2),
	}
	if !discount.IsZero() {
		t.CouponCode = in.CouponCode
		t.DiscountPercentage = in.DiscountPct
	}
	return t
}
