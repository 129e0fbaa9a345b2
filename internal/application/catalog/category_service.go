package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CategoryService handles category-related business operations
type CategoryService struct {
	storeRepo      store.StoreRepository
	categoryRepo   catalog.CategoryRepository
	eventPublisher shared.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	storeRepo store.StoreRepository,
	categoryRepo catalog.CategoryRepository,
	eventPublisher shared.EventPublisher,
) *CategoryService {
	return &CategoryService{
		storeRepo:      storeRepo,
		categoryRepo:   categoryRepo,
		eventPublisher: eventPublisher,
	}
}

// List returns the store's categories in menu order
func (s *CategoryService) List(ctx context.Context, storeID string) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx, storeID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, ToCategoryResponse(&categories[i]))
	}
	return out, nil
}

// Create appends a category at the end of the menu
func (s *CategoryService) Create(ctx context.Context, storeID string, req CreateCategoryRequest) (*CategoryResponse, error) {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}
	count, err := s.categoryRepo.Count(ctx, storeID)
	if err != nil {
		return nil, err
	}

	category, err := catalog.NewCategory(storeID, req.Name, int(count)+1)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	publishDomainEvents(ctx, s.eventPublisher, category)

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Update renames and/or reorders a category
func (s *CategoryService) Update(ctx context.Context, storeID string, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := category.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		if err := category.Reorder(*req.SortOrder); err != nil {
			return nil, err
		}
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	publishDomainEvents(ctx, s.eventPublisher, category)

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete removes a category together with its products
func (s *CategoryService) Delete(ctx context.Context, storeID string, id uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return err
	}
	if err := s.categoryRepo.DeleteWithProducts(ctx, storeID, id); err != nil {
		return err
	}
	category.MarkDeleted()
	publishDomainEvents(ctx, s.eventPublisher, category)
	return nil
}

// publishDomainEvents publishes and clears the events recorded on an aggregate
func publishDomainEvents(ctx context.Context, publisher shared.EventPublisher, agg shared.AggregateRoot) {
	if publisher == nil {
		return
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish catalog events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}
