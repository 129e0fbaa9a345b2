package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
)

// Enhancer rewrites a product description. It returns current unchanged
// when no suggestion is available.
type Enhancer interface {
	Enhance(ctx context.Context, name, current string) string
}

// ProductService handles product-related business operations
type ProductService struct {
	storeRepo      store.StoreRepository
	categoryRepo   catalog.CategoryRepository
	productRepo    catalog.ProductRepository
	enhancer       Enhancer
	eventPublisher shared.EventPublisher
	loc            *time.Location
	now            func() time.Time
}

// NewProductService creates a new ProductService. A nil enhancer makes
// EnhanceDescription echo the current description.
func NewProductService(
	storeRepo store.StoreRepository,
	categoryRepo catalog.CategoryRepository,
	productRepo catalog.ProductRepository,
	enhancer Enhancer,
	eventPublisher shared.EventPublisher,
	loc *time.Location,
) *ProductService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProductService{
		storeRepo:      storeRepo,
		categoryRepo:   categoryRepo,
		productRepo:    productRepo,
		enhancer:       enhancer,
		eventPublisher: eventPublisher,
		loc:            loc,
		now:            time.Now,
	}
}

// SetClock overrides time.Now
func (s *ProductService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ProductService) localNow() time.Time {
	return s.now().In(s.loc)
}

// List returns the store's products ordered by name
func (s *ProductService) List(ctx context.Context, storeID string, filter ProductListFilter) ([]ProductResponse, error) {
	products, err := s.productRepo.FindAll(ctx, storeID, catalog.ProductFilter{
		CategoryID: filter.CategoryID,
		Search:     strings.TrimSpace(filter.Search),
	})
	if err != nil {
		return nil, err
	}
	now := s.localNow()
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i], now))
	}
	return out, nil
}

// GetByID returns one product
func (s *ProductService) GetByID(ctx context.Context, storeID string, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(p, s.localNow())
	return &resp, nil
}

// Save creates a product, or updates it when req.ID names an existing
// product of the store
func (s *ProductService) Save(ctx context.Context, storeID string, req SaveProductRequest) (*ProductResponse, error) {
	if err := s.checkCategory(ctx, storeID, req.CategoryID); err != nil {
		return nil, err
	}

	var p *catalog.Product
	if req.ID != nil {
		existing, err := s.productRepo.FindByID(ctx, storeID, *req.ID)
		switch {
		case err == nil:
			if err := existing.Update(req.Input()); err != nil {
				return nil, err
			}
			p = existing
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}
	if p == nil {
		created, err := catalog.NewProduct(storeID, req.Input())
		if err != nil {
			return nil, err
		}
		p = created
	}

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	publishDomainEvents(ctx, s.eventPublisher, p)

	resp := ToProductResponse(p, s.localNow())
	return &resp, nil
}

func (s *ProductService) checkCategory(ctx context.Context, storeID string, categoryID uuid.UUID) error {
	_, err := s.categoryRepo.FindByID(ctx, storeID, categoryID)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError("INVALID_CATEGORY", "Category does not belong to this store")
	}
	return err
}

// Duplicate copies a product under a new ID with fresh option IDs
func (s *ProductService) Duplicate(ctx context.Context, storeID string, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	dup, err := p.Duplicate()
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, dup); err != nil {
		return nil, err
	}
	publishDomainEvents(ctx, s.eventPublisher, dup)

	resp := ToProductResponse(dup, s.localNow())
	return &resp, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, storeID string, id uuid.UUID) error {
	p, err := s.productRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, storeID, id); err != nil {
		return err
	}
	p.MarkDeleted()
	publishDomainEvents(ctx, s.eventPublisher, p)
	return nil
}

// GetMenu returns the categories of a store with their products, plus the
// daily suggestion when one is set
func (s *ProductService) GetMenu(ctx context.Context, storeID string) (*MenuResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.FindAll(ctx, storeID)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindAll(ctx, storeID, catalog.ProductFilter{})
	if err != nil {
		return nil, err
	}

	now := s.localNow()
	byCategory := make(map[uuid.UUID][]ProductResponse, len(categories))
	menu := &MenuResponse{StoreID: storeID, Categories: make([]MenuCategory, 0, len(categories))}
	for i := range products {
		resp := ToProductResponse(&products[i], now)
		byCategory[resp.CategoryID] = append(byCategory[resp.CategoryID], resp)
		if st.DailySuggestionProductID != nil && *st.DailySuggestionProductID == resp.ID.String() {
			suggestion := resp
			menu.DailySuggestion = &suggestion
		}
	}
	for i := range categories {
		items := byCategory[categories[i].ID]
		if items == nil {
			items = []ProductResponse{}
		}
		menu.Categories = append(menu.Categories, MenuCategory{
			CategoryResponse: ToCategoryResponse(&categories[i]),
			Products:         items,
		})
	}
	return menu, nil
}

// EnhanceDescription asks the enhancer for a better description. Nothing is
// saved; the admin decides whether to keep the suggestion.
func (s *ProductService) EnhanceDescription(ctx context.Context, storeID string, req EnhanceDescriptionRequest) (*EnhanceDescriptionResponse, error) {
	name, current := req.Name, req.Description
	if req.ProductID != nil {
		p, err := s.productRepo.FindByID(ctx, storeID, *req.ProductID)
		if err != nil {
			return nil, err
		}
		name, current = p.Name, p.Description
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name is required")
	}

	if s.enhancer == nil {
		return &EnhanceDescriptionResponse{Description: current}, nil
	}
	suggestion := s.enhancer.Enhance(ctx, name, current)
	return &EnhanceDescriptionResponse{
		Description: suggestion,
		Enhanced:    suggestion != current,
	}, nil
}
