package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
)

// ErrProductUnavailable is returned when a line references a product that
// is not on the store's menu
var ErrProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Produto indisponível")

// CouponResolver finds the active coupon for a code
type CouponResolver interface {
	Resolve(ctx context.Context, storeID, code string) (*coupon.Coupon, error)
}

// QuoteInput is what a quote is computed from. Prices always come from the
// catalog.
type QuoteInput struct {
	StoreID    string
	Lines      []cart.LineRequest
	CouponCode string
	Fulfilment cart.Fulfilment
	Upsell     bool
}

// Quote is a repriced set of lines with their totals
type Quote struct {
	Store  *store.Store
	Lines  []cart.Line
	Totals cart.Totals
}

// Quoter prices lines from the catalog and computes totals
type Quoter struct {
	storeRepo   store.StoreRepository
	productRepo catalog.ProductRepository
	coupons     CouponResolver
}

// NewQuoter creates a new Quoter
func NewQuoter(storeRepo store.StoreRepository, productRepo catalog.ProductRepository, coupons CouponResolver) *Quoter {
	return &Quoter{storeRepo: storeRepo, productRepo: productRepo, coupons: coupons}
}

// PriceLines prices every request against the store's current catalog
func (q *Quoter) PriceLines(ctx context.Context, storeID string, reqs []cart.LineRequest) ([]cart.Line, error) {
	if len(reqs) == 0 {
		return []cart.Line{}, nil
	}
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	products, err := q.productRepo.FindByIDs(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]cart.Line, 0, len(reqs))
	for _, r := range reqs {
		p, ok := byID[r.ProductID]
		if !ok {
			return nil, ErrProductUnavailable
		}
		line, err := cart.PriceLine(p, r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Quote prices the lines, resolves the coupon and computes the totals. An
// unknown coupon fails with coupon.ErrCouponNotFound.
func (q *Quoter) Quote(ctx context.Context, in QuoteInput) (*Quote, error) {
	st, err := q.storeRepo.FindByID(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}
	lines, err := q.PriceLines(ctx, in.StoreID, in.Lines)
	if err != nil {
		return nil, err
	}
	return q.quote(ctx, st, lines, in)
}

// QuoteLines computes totals for lines that were already priced
func (q *Quoter) QuoteLines(ctx context.Context, st *store.Store, lines []cart.Line, in QuoteInput) (*Quote, error) {
	return q.quote(ctx, st, lines, in)
}

func (q *Quoter) quote(ctx context.Context, st *store.Store, lines []cart.Line, in QuoteInput) (*Quote, error) {
	if in.Upsell && len(lines) > 0 {
		p, err := q.upsellProduct(ctx, st)
		if err != nil {
			return nil, err
		}
		if p != nil {
			lines = append(append([]cart.Line(nil), lines...), cart.UpsellLine(p))
		}
	}

	fulfilment := in.Fulfilment
	if fulfilment == "" {
		fulfilment = cart.FulfilmentDelivery
	}
	ti := cart.TotalsInput{
		Lines:       lines,
		Fulfilment:  fulfilment,
		DeliveryFee: st.DeliveryFee,
	}
	if code := coupon.NormalizeCode(in.CouponCode); code != "" {
		c, err := q.coupons.Resolve(ctx, st.ID, code)
		if err != nil {
			return nil, err
		}
		ti.CouponCode = c.Code
		ti.DiscountPct = c.DiscountPercentage
	}

	return &Quote{Store: st, Lines: lines, Totals: cart.ComputeTotals(ti)}, nil
}

// upsellProduct is the store's daily suggestion, or the first product of the
// menu when none is set. It returns nil when the store has no products.
func (q *Quoter) upsellProduct(ctx context.Context, st *store.Store) (*catalog.Product, error) {
	if st.DailySuggestionProductID != nil {
		if id, err := uuid.Parse(*st.DailySuggestionProductID); err == nil {
			p, err := q.productRepo.FindByID(ctx, st.ID, id)
			if err == nil {
				return p, nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
		}
	}
	products, err := q.productRepo.FindAll(ctx, st.ID, catalog.ProductFilter{})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}
