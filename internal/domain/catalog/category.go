package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/japabox/storefront/internal/domain/shared"
)

// Category groups products on a store's menu
type Category struct {
	shared.BaseAggregateRoot
	StoreID   string `gorm:"type:varchar(20);not null;index:idx_category_store_order,priority:1"`
	Name      string `gorm:"type:varchar(100);not null"`
	SortOrder int    `gorm:"not null;default:0;index:idx_category_store_order,priority:2"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a category placed at sortOrder
func NewCategory(storeID, name string, sortOrder int) (*Category, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, shared.NewDomainError("INVALID_STORE_ID", "Store ID cannot be empty")
	}
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if sortOrder < 0 {
		return nil, shared.NewDomainError("INVALID_SORT_ORDER", "Sort order cannot be negative")
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		Name:              strings.TrimSpace(name),
		SortOrder:         sortOrder,
	}
	category.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryCreated, category))

	return category, nil
}

// Rename changes the category name
func (c *Category) Rename(name string) error {
	if err := validateCategoryName(name); err != nil {
		return err
	}

	c.Name = strings.TrimSpace(name)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryUpdated, c))

	return nil
}

// Reorder moves the category to a new position
func (c *Category) Reorder(sortOrder int) error {
	if sortOrder < 0 {
		return shared.NewDomainError("INVALID_SORT_ORDER", "Sort order cannot be negative")
	}

	c.SortOrder = sortOrder
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryUpdated, c))

	return nil
}

// MarkDeleted records the deletion event before the row is removed
func (c *Category) MarkDeleted() {
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryDeleted, c))
}

func validateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
