package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"go.uber.org/zap"
)

// Service manages server-side carts
type Service struct {
	carts     cart.Store
	storeRepo store.StoreRepository
	quoter    *Quoter
	coupons   CouponResolver
	logger    *zap.Logger
}

// NewService creates a new cart Service
func NewService(
	carts cart.Store,
	storeRepo store.StoreRepository,
	quoter *Quoter,
	coupons CouponResolver,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:     carts,
		storeRepo: storeRepo,
		quoter:    quoter,
		coupons:   coupons,
		logger:    logger,
	}
}

// Create opens an empty cart and returns its token
func (s *Service) Create(ctx context.Context, req CreateCartRequest) (*CartResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	c := cart.New(uuid.NewString(), st.ID)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.respond(ctx, st, c), nil
}

// Get returns a cart with delivery totals
func (s *Service) Get(ctx context.Context, token string) (*CartResponse, error) {
	c, st, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, st, c), nil
}

// AddLine prices a product selection and appends it to the cart
func (s *Service) AddLine(ctx context.Context, token string, req AddLineRequest) (*CartResponse, error) {
	c, st, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	lines, err := s.quoter.PriceLines(ctx, c.StoreID, []cart.LineRequest{req.LineRequest()})
	if err != nil {
		return nil, err
	}
	c.AddLine(lines[0])
	return s.save(ctx, st, c)
}

// UpdateQuantity changes a line quantity; zero removes the line
func (s *Service) UpdateQuantity(ctx context.Context, token, lineID string, quantity int) (*CartResponse, error) {
	c, st, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateQuantity(lineID, quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, st, c)
}

// RemoveLine deletes a line
func (s *Service) RemoveLine(ctx context.Context, token, lineID string) (*CartResponse, error) {
	c, st, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveLine(lineID); err != nil {
		return nil, err
	}
	return s.save(ctx, st, c)
}

// Clear empties the cart and drops its coupon
func (s *Service) Clear(ctx context.Context, token string) (*CartResponse, error) {
	c, st, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	c.Clear()
	return s.save(ctx, st, c)
}

// ApplyCoupon attaches a coupon to the cart. An unknown or inactive code
// leaves the cart untouched and reports Applied false.
func (s *Service) ApplyCoupon(ctx context.Context, token, code string) (*ApplyCouponResponse, error) {
	c, st, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	cp, err := s.coupons.Resolve(ctx, c.StoreID, code)
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			return &ApplyCouponResponse{Applied: false, Message: coupon.ErrCouponNotFound.Message, Cart: s.respond(ctx, st, c)}, nil
		}
		return nil, err
	}
	c.SetCoupon(cp.Code)
	resp, err := s.save(ctx, st, c)
	if err != nil {
		return nil, err
	}
	return &ApplyCouponResponse{Applied: true, Cart: resp}, nil
}

// RemoveCoupon detaches the coupon
func (s *Service) RemoveCoupon(ctx context.Context, token string) (*CartResponse, error) {
	c, st, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	c.SetCoupon("")
	return s.save(ctx, st, c)
}

// Quote reprices the cart from the catalog and computes the totals
func (s *Service) Quote(ctx context.Context, token string, req CartQuoteRequest) (*QuoteResponse, error) {
	c, _, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	q, err := s.quoter.Quote(ctx, QuoteInput{
		StoreID:    c.StoreID,
		Lines:      Requests(c),
		CouponCode: c.CouponCode,
		Fulfilment: cart.Fulfilment(req.Fulfilment),
		Upsell:     req.Upsell,
	})
	if err != nil {
		return nil, err
	}
	return ToQuoteResponse(q), nil
}

// QuoteLines prices lines sent by the client without a stored cart
func (s *Service) QuoteLines(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	q, err := s.quoter.Quote(ctx, QuoteInput{
		StoreID:    req.StoreID,
		Lines:      req.Lines,
		CouponCode: req.CouponCode,
		Fulfilment: cart.Fulfilment(req.Fulfilment),
		Upsell:     req.Upsell,
	})
	if err != nil {
		return nil, err
	}
	return ToQuoteResponse(q), nil
}

// Load returns a stored cart for checkout
func (s *Service) Load(ctx context.Context, token string) (*cart.Cart, error) {
	c, _, err := s.load(ctx, token)
	return c, err
}

// Discard deletes a cart after its order was placed
func (s *Service) Discard(ctx context.Context, token string) error {
	return s.carts.Delete(ctx, token)
}

// Requests returns the line requests that rebuild the cart from the catalog
func Requests(c *cart.Cart) []cart.LineRequest {
	reqs := make([]cart.LineRequest, 0, len(c.Lines))
	for _, l := range c.Lines {
		reqs = append(reqs, l.Request())
	}
	return reqs
}

func (s *Service) load(ctx context.Context, token string) (*cart.Cart, *store.Store, error) {
	c, err := s.carts.Get(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError("CART_NOT_FOUND", "Carrinho não encontrado ou expirado")
		}
		return nil, nil, err
	}
	st, err := s.storeRepo.FindByID(ctx, c.StoreID)
	if err != nil {
		return nil, nil, err
	}
	return c, st, nil
}

func (s *Service) save(ctx context.Context, st *store.Store, c *cart.Cart) (*CartResponse, error) {
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.respond(ctx, st, c), nil
}

// respond computes delivery totals from the stored line snapshots. A coupon
// that stopped resolving is ignored rather than failing the read.
func (s *Service) respond(ctx context.Context, st *store.Store, c *cart.Cart) *CartResponse {
	in := QuoteInput{StoreID: st.ID, CouponCode: c.CouponCode, Fulfilment: cart.FulfilmentDelivery}
	q, err := s.quoter.QuoteLines(ctx, st, c.Lines, in)
	if err != nil {
		s.logger.Debug("Cart coupon no longer applies", zap.String("coupon", c.CouponCode), zap.Error(err))
		in.CouponCode = ""
		q, _ = s.quoter.QuoteLines(ctx, st, c.Lines, in)
	}
	resp := &CartResponse{
		Token:      c.Token,
		StoreID:    c.StoreID,
		Lines:      c.Lines,
		CouponCode: c.CouponCode,
		ItemCount:  c.ItemCount(),
		UpdatedAt:  c.UpdatedAt,
	}
	if q != nil {
		resp.Totals = q.Totals
	}
	return resp
}
