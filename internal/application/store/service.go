package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Service manages store configurations
type Service struct {
	storeRepo      store.StoreRepository
	categoryRepo   catalog.CategoryRepository
	productRepo    catalog.ProductRepository
	couponRepo     coupon.CouponRepository
	eventPublisher shared.EventPublisher
	txScope        store.TransactionScope
	seed           *Seed
	loc            *time.Location
	now            func() time.Time
	logger         *zap.Logger
}

// Option configures the Service
type Option func(*Service)

// WithSeed replaces the embedded default seed
func WithSeed(seed *Seed) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithTransactionScope makes CreateStore write the store and its seed
// atomically through scope
func WithTransactionScope(scope store.TransactionScope) Option {
	return func(s *Service) {
		s.txScope = scope
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new store Service. loc is the timezone opening hours
// are evaluated in.
func NewService(
	storeRepo store.StoreRepository,
	categoryRepo catalog.CategoryRepository,
	productRepo catalog.ProductRepository,
	couponRepo coupon.CouponRepository,
	eventPublisher shared.EventPublisher,
	loc *time.Location,
	logger *zap.Logger,
	opts ...Option,
) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		storeRepo:      storeRepo,
		categoryRepo:   categoryRepo,
		productRepo:    productRepo,
		couponRepo:     couponRepo,
		eventPublisher: eventPublisher,
		loc:            loc,
		now:            time.Now,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.txScope == nil {
		s.txScope = directScope{s}
	}
	if s.seed == nil {
		seed, err := DefaultSeed()
		if err != nil {
			return nil, err
		}
		s.seed = seed
	}
	return s, nil
}

// ListStoreIDs returns every store ID in numeric order
func (s *Service) ListStoreIDs(ctx context.Context) ([]string, error) {
	stores, err := s.storeRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(stores))
	for _, st := range stores {
		ids = append(ids, st.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return store.LessID(ids[i], ids[j]) })
	return ids, nil
}

// CreateStore creates the next store and fills it with the default seed.
// If the next ID is already taken the existing store is returned untouched.
func (s *Service) CreateStore(ctx context.Context) (*StoreResponse, error) {
	count, err := s.storeRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	id := store.NextStoreID(count)

	existing, err := s.storeRepo.FindByID(ctx, id)
	if err == nil {
		return s.toResponse(existing), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	settings, err := s.seed.Settings()
	if err != nil {
		return nil, err
	}
	st, err := store.NewStore(id, settings)
	if err != nil {
		return nil, err
	}
	err = s.txScope.Execute(ctx, func(repos store.SeedRepositories) error {
		if err := repos.StoreRepo().Save(ctx, st); err != nil {
			return err
		}
		return s.seedContent(ctx, repos, id)
	})
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, st)

	s.logger.Info("Store created", zap.String("store_id", id))
	return s.toResponse(st), nil
}

func (s *Service) seedContent(ctx context.Context, repos store.SeedRepositories, storeID string) error {
	categories, products, coupons, err := s.seed.Build(storeID)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if err := repos.CategoryRepo().Save(ctx, c); err != nil {
			return fmt.Errorf("failed to seed category: %w", err)
		}
		c.ClearDomainEvents()
	}
	for _, p := range products {
		if err := repos.ProductRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product: %w", err)
		}
		p.ClearDomainEvents()
	}
	for _, c := range coupons {
		if err := repos.CouponRepo().Save(ctx, c); err != nil {
			return fmt.Errorf("failed to seed coupon: %w", err)
		}
	}
	return nil
}

// GetStore returns a store configuration
func (s *Service) GetStore(ctx context.Context, id string) (*StoreResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(st), nil
}

// UpdateStore replaces the configuration, creating the store if it does not exist
func (s *Service) UpdateStore(ctx context.Context, id string, req UpdateStoreRequest) (*StoreResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, id)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		st, err = store.NewStore(id, req.Settings())
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := st.Update(req.Settings()); err != nil {
			return nil, err
		}
	}

	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, st)
	return s.toResponse(st), nil
}

// SetOpen flips the manual open switch
func (s *Service) SetOpen(ctx context.Context, id string, open bool) (*StoreResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	st.SetOpen(open)
	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, st)
	return s.toResponse(st), nil
}

// SetDailySuggestion highlights a product of the store, or clears the
// highlight when productID is nil
func (s *Service) SetDailySuggestion(ctx context.Context, id string, productID *uuid.UUID) (*StoreResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var suggestion *string
	if productID != nil {
		p, err := s.productRepo.FindByID(ctx, id, *productID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PRODUCT", "Product does not belong to this store")
			}
			return nil, err
		}
		v := p.ID.String()
		suggestion = &v
	}

	st.SetDailySuggestion(suggestion)
	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, st)
	return s.toResponse(st), nil
}

// IsOpen reports whether the store accepts orders right now
func (s *Service) IsOpen(ctx context.Context, id string) (bool, error) {
	st, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return st.IsOpenAt(s.now(), s.loc), nil
}

func (s *Service) toResponse(st *store.Store) *StoreResponse {
	return ToStoreResponse(st, st.IsOpenAt(s.now(), s.loc))
}

func (s *Service) publishDomainEvents(ctx context.Context, st *store.Store) {
	if s.eventPublisher == nil {
		return
	}
	events := st.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish store events",
			zap.String("store_id", st.ID),
			zap.Error(err),
		)
	}
	st.ClearDomainEvents()
}

// directScope writes through the service's own repositories without a
// transaction
type directScope struct {
	s *Service
}

func (d directScope) Execute(_ context.Context, fn func(repos store.SeedRepositories) error) error {
	return fn(d)
}

func (d directScope) StoreRepo() store.StoreRepository { return d.s.storeRepo }
func (d directScope) CategoryRepo() catalog.CategoryRepository { return d.s.categoryRepo }
func (d directScope) ProductRepo() catalog.ProductRepository { return d.s.productRepo }
func (d directScope) CouponRepo() coupon.CouponRepository { return d.s.couponRepo }
