package coupon

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
)

var errCodeTaken = shared.NewDomainError("ALREADY_EXISTS", "Coupon code already exists")

// Service handles coupon management and lookup
type Service struct {
	storeRepo  store.StoreRepository
	couponRepo coupon.CouponRepository
}

// NewService creates a new coupon Service
func NewService(storeRepo store.StoreRepository, couponRepo coupon.CouponRepository) *Service {
	return &Service{storeRepo: storeRepo, couponRepo: couponRepo}
}

// List returns the store's coupons ordered by code
func (s *Service) List(ctx context.Context, storeID string) ([]CouponResponse, error) {
	coupons, err := s.couponRepo.FindAll(ctx, storeID)
	if err != nil {
		return nil, err
	}
	out := make([]CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, ToCouponResponse(&coupons[i]))
	}
	return out, nil
}

// Create adds an active coupon
func (s *Service) Create(ctx context.Context, storeID string, req CreateCouponRequest) (*CouponResponse, error) {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}
	c, err := coupon.NewCoupon(storeID, req.Code, req.DiscountPercentage)
	if err != nil {
		return nil, err
	}
	exists, err := s.couponRepo.ExistsByCode(ctx, storeID, c.Code, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errCodeTaken
	}
	if err := s.couponRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCouponResponse(c)
	return &resp, nil
}

// Update changes a coupon
func (s *Service) Update(ctx context.Context, storeID string, id uuid.UUID, req UpdateCouponRequest) (*CouponResponse, error) {
	c, err := s.couponRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.Code, req.DiscountPercentage, req.Active); err != nil {
		return nil, err
	}
	exists, err := s.couponRepo.ExistsByCode(ctx, storeID, c.Code, &c.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errCodeTaken
	}
	if err := s.couponRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCouponResponse(c)
	return &resp, nil
}

// Delete removes a coupon
func (s *Service) Delete(ctx context.Context, storeID string, id uuid.UUID) error {
	return s.couponRepo.Delete(ctx, storeID, id)
}

// Resolve returns the active coupon with the given code, matched without
// regard to case
func (s *Service) Resolve(ctx context.Context, storeID, code string) (*coupon.Coupon, error) {
	code = coupon.NormalizeCode(code)
	if code == "" {
		return nil, coupon.ErrCouponNotFound
	}
	c, err := s.couponRepo.FindByCode(ctx, storeID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, coupon.ErrCouponNotFound
		}
		return nil, err
	}
	if !c.Active {
		return nil, coupon.ErrCouponNotFound
	}
	return c, nil
}
