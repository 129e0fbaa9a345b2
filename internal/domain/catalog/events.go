package catalog

import (
	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeCategory = "Category"
	AggregateTypeProduct  = "Product"
)

// Event type constants
const (
	EventTypeCategoryCreated = "CategoryCreated"
	EventTypeCategoryUpdated = "CategoryUpdated"
	EventTypeCategoryDeleted = "CategoryDeleted"
	EventTypeProductCreated  = "ProductCreated"
	EventTypeProductUpdated  = "ProductUpdated"
	EventTypeProductDeleted  = "ProductDeleted"
)

// CategoryChangedEvent is published when a category is created, updated or deleted
type CategoryChangedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	SortOrder  int       `json:"sort_order"`
}

// NewCategoryChangedEvent creates a new CategoryChangedEvent
func NewCategoryChangedEvent(eventType string, c *Category) *CategoryChangedEvent {
	return &CategoryChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCategory, c.ID.String(), c.StoreID),
		CategoryID:      c.ID,
		Name:            c.Name,
		SortOrder:       c.SortOrder,
	}
}

// ProductChangedEvent is published when a product is created, updated or deleted
type ProductChangedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
}

// NewProductChangedEvent creates a new ProductChangedEvent
func NewProductChangedEvent(eventType string, p *Product) *ProductChangedEvent {
	return &ProductChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID.String(), p.StoreID),
		ProductID:       p.ID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Price:           p.Price.StringFixed(2),
	}
}
