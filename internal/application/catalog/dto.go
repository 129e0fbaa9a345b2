package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateCategoryRequest represents a request to rename or reorder a category
type UpdateCategoryRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=100"`
	SortOrder *int    `json:"sortOrder" binding:"omitempty,min=0"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	StoreID   string    `json:"storeId"`
	Name      string    `json:"name"`
	SortOrder int       `json:"order"`
}

// ToCategoryResponse converts a category to its response
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		StoreID:   c.StoreID,
		Name:      c.Name,
		SortOrder: c.SortOrder,
	}
}

// SaveProductRequest creates a product, or updates it when ID names an
// existing product of the store. An unknown ID creates a product with a
// fresh ID.
type SaveProductRequest struct {
	ID             *uuid.UUID            `json:"id"`
	CategoryID     uuid.UUID             `json:"categoryId" binding:"required"`
	Name           string                `json:"name" binding:"required,min=1,max=200"`
	Description    string                `json:"description" binding:"max=2000"`
	Price          decimal.Decimal       `json:"price"`
	OldPrice       *decimal.Decimal      `json:"oldPrice"`
	PromoStartTime *string               `json:"promoStartTime"`
	PromoEndTime   *string               `json:"promoEndTime"`
	ImageURL       string                `json:"imageUrl" binding:"max=1000"`
	Options        []catalog.OptionGroup `json:"options"`
}

// Input converts the request to domain input
func (r SaveProductRequest) Input() catalog.ProductInput {
	return catalog.ProductInput{
		CategoryID:     r.CategoryID,
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		OldPrice:       r.OldPrice,
		PromoStartTime: r.PromoStartTime,
		PromoEndTime:   r.PromoEndTime,
		ImageURL:       r.ImageURL,
		Options:        r.Options,
	}
}

// ProductListFilter narrows the product list
type ProductListFilter struct {
	CategoryID *uuid.UUID `form:"category_id"`
	Search     string     `form:"search" binding:"max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID             `json:"id"`
	StoreID        string                `json:"storeId"`
	CategoryID     uuid.UUID             `json:"categoryId"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Price          decimal.Decimal       `json:"price"`
	OldPrice       *decimal.Decimal      `json:"oldPrice,omitempty"`
	PromoStartTime *string               `json:"promoStartTime,omitempty"`
	PromoEndTime   *string               `json:"promoEndTime,omitempty"`
	OnPromotion    bool                  `json:"onPromotion"`
	ImageURL       string                `json:"imageUrl"`
	Options        []catalog.OptionGroup `json:"options"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// ToProductResponse converts a product to its response; now decides whether
// the promotion is running
func ToProductResponse(p *catalog.Product, now time.Time) ProductResponse {
	options := []catalog.OptionGroup(p.Options)
	if options == nil {
		options = []catalog.OptionGroup{}
	}
	return ProductResponse{
		ID:             p.ID,
		StoreID:        p.StoreID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		OldPrice:       p.OldPrice,
		PromoStartTime: p.PromoStartTime,
		PromoEndTime:   p.PromoEndTime,
		OnPromotion:    p.OnPromotionAt(now),
		ImageURL:       p.ImageURL,
		Options:        options,
		UpdatedAt:      p.UpdatedAt,
	}
}

// MenuCategory is a category with its products
type MenuCategory struct {
	CategoryResponse
	Products []ProductResponse `json:"products"`
}

// MenuResponse is the storefront menu
type MenuResponse struct {
	StoreID         string           `json:"storeId"`
	Categories      []MenuCategory   `json:"categories"`
	DailySuggestion *ProductResponse `json:"dailySuggestion,omitempty"`
}

// EnhanceDescriptionRequest asks for a better product description. With a
// ProductID the stored name and description are used.
type EnhanceDescriptionRequest struct {
	ProductID   *uuid.UUID `json:"productId"`
	Name        string     `json:"name" binding:"max=200"`
	Description string     `json:"description" binding:"max=2000"`
}

// EnhanceDescriptionResponse carries the suggestion. Enhanced is false when
// the current description came back unchanged.
type EnhanceDescriptionResponse struct {
	Description string `json:"description"`
	Enhanced    bool   `json:"enhanced"`
}
