package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DuplicateSuffix is appended to the name of a duplicated product
const DuplicateSuffix = " (Cópia)"

// Product is a menu item. Option groups are stored inline as JSON.
type Product struct {
	shared.BaseAggregateRoot
	StoreID        string                            `gorm:"type:varchar(20);not null;index"`
	CategoryID     uuid.UUID                         `gorm:"type:uuid;not null;index"`
	Name           string                            `gorm:"type:varchar(200);not null"`
	Description    string                            `gorm:"type:text"`
	Price          decimal.Decimal                   `gorm:"type:decimal(18,2);not null;default:0"`
	OldPrice       *decimal.Decimal                  `gorm:"type:decimal(18,2)"`
	PromoStartTime *string                           `gorm:"type:varchar(5)"`
	PromoEndTime   *string                           `gorm:"type:varchar(5)"`
	ImageURL       string                            `gorm:"type:varchar(1000)"`
	Options        datatypes.JSONSlice[OptionGroup] `gorm:"type:json"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductInput holds the editable fields of a product
type ProductInput struct {
	CategoryID     uuid.UUID
	Name           string
	Description    string
	Price          decimal.Decimal
	OldPrice       *decimal.Decimal
	PromoStartTime *string
	PromoEndTime   *string
	ImageURL       string
	Options        []OptionGroup
}

// NewProduct creates a product in the given store
func NewProduct(storeID string, in ProductInput) (*Product, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, shared.NewDomainError("INVALID_STORE_ID", "Store ID cannot be empty")
	}
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
	}
	if err := p.apply(in); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProductChangedEvent(EventTypeProductCreated, p))
	return p, nil
}

// Update replaces the editable fields
func (p *Product) Update(in ProductInput) error {
	if err := p.apply(in); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductChangedEvent(EventTypeProductUpdated, p))
	return nil
}

func (p *Product) apply(in ProductInput) error {
	if err := validateProductName(in.Name); err != nil {
		return err
	}
	if in.CategoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Category is required")
	}
	if in.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if in.OldPrice != nil && in.OldPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Old price cannot be negative")
	}
	start, end := normalizeClock(in.PromoStartTime), normalizeClock(in.PromoEndTime)
	if (start == nil) != (end == nil) {
		return shared.NewDomainError("INVALID_PROMO_WINDOW", "Promotion needs both start and end times")
	}
	if start != nil {
		if _, err := valueobject.NewTimeWindow(*start, *end); err != nil {
			return shared.WrapDomainError("INVALID_PROMO_WINDOW", "Promotion times must be HH:MM", err)
		}
	}

	groups := cloneGroups(in.Options)
	assignIDs(groups, false)
	if err := validateGroups(groups); err != nil {
		return err
	}

	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price.Round(2)
	p.OldPrice = nil
	if in.OldPrice != nil {
		old := in.OldPrice.Round(2)
		p.OldPrice = &old
	}
	p.PromoStartTime = start
	p.PromoEndTime = end
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	p.Options = groups
	return nil
}

// Input returns the editable fields of p
func (p *Product) Input() ProductInput {
	return ProductInput{
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		OldPrice:       p.OldPrice,
		PromoStartTime: p.PromoStartTime,
		PromoEndTime:   p.PromoEndTime,
		ImageURL:       p.ImageURL,
		Options:        cloneGroups(p.Options),
	}
}

// Duplicate returns a copy of p with a new identity and fresh option IDs
func (p *Product) Duplicate() (*Product, error) {
	in := p.Input()
	in.Name = p.Name + DuplicateSuffix
	if utf8.RuneCountInString(in.Name) > 200 {
		in.Name = string([]rune(in.Name)[:200])
	}
	assignIDs(in.Options, true)
	return NewProduct(p.StoreID, in)
}

// FindOption returns the option group with the given ID
func (p *Product) FindOption(id string) (OptionGroup, bool) {
	for _, g := range p.Options {
		if g.ID == id {
			return g, true
		}
	}
	return OptionGroup{}, false
}

// OnPromotionAt reports whether the strike-through old price should be shown
// at t. A product without a promo window is on promotion all day.
func (p *Product) OnPromotionAt(t time.Time) bool {
	if p.OldPrice == nil || !p.OldPrice.GreaterThan(p.Price) {
		return false
	}
	if p.PromoStartTime == nil || p.PromoEndTime == nil {
		return true
	}
	w, err := valueobject.NewTimeWindow(*p.PromoStartTime, *p.PromoEndTime)
	if err != nil {
		return false
	}
	return w.Contains(valueobject.ClockOf(t))
}

// MarkDeleted records the deletion event before the row is removed
func (p *Product) MarkDeleted() {
	p.AddDomainEvent(NewProductChangedEvent(EventTypeProductDeleted, p))
}

func normalizeClock(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
