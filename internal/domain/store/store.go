package store

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Gateway identifies the payment provider a store charges through
type Gateway string

const (
	GatewayAsaas       Gateway = "asaas"
	GatewayMercadoPago Gateway = "mercado_pago"
	GatewayManual      Gateway = "manual"
)

// IsValid reports whether g is a known gateway
func (g Gateway) IsValid() bool {
	switch g {
	case GatewayAsaas, GatewayMercadoPago, GatewayManual:
		return true
	}
	return false
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Store is one storefront configuration. Its ID is a short numeric string
// ("1", "2", ...) assigned in creation order.
type Store struct {
	shared.EventRecorder
	ID                       string          `gorm:"type:varchar(20);primaryKey"`
	Name                     string          `gorm:"type:varchar(200);not null"`
	Address                  string          `gorm:"type:varchar(500)"`
	OpeningHours             string          `gorm:"type:varchar(50);not null"`
	IsOpen                   bool            `gorm:"not null;default:false"`
	DeliveryFee              decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	MinOrder                 decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PrimaryColor             string          `gorm:"type:varchar(7);not null"`
	BannerURL                string          `gorm:"type:varchar(1000)"`
	LogoURL                  string          `gorm:"type:varchar(1000)"`
	Gateway                  Gateway         `gorm:"type:varchar(20);not null;default:'asaas'"`
	DailySuggestionProductID *string         `gorm:"type:varchar(36)"`
	MetaPixelID              string          `gorm:"type:varchar(50)"`
	MetaCAPIToken            string          `gorm:"column:meta_capi_token;type:text"`
	CreatedAt                time.Time       `gorm:"not null"`
	UpdatedAt                time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Store) TableName() string {
	return "stores"
}

// Settings is the editable part of a store configuration
type Settings struct {
	Name          string
	Address       string
	OpeningHours  string
	IsOpen        bool
	DeliveryFee   decimal.Decimal
	MinOrder      decimal.Decimal
	PrimaryColor  string
	BannerURL     string
	LogoURL       string
	Gateway       Gateway
	MetaPixelID   string
	MetaCAPIToken *string // nil keeps the current token
}

// NewStore creates a store with the given ID and settings
func NewStore(id string, s Settings) (*Store, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("INVALID_STORE_ID", "Store ID cannot be empty")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	st := &Store{
		EventRecorder: shared.EventRecorder{Version: 1},
		ID:            id,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	st.apply(s)
	st.AddDomainEvent(NewStoreCreatedEvent(st))
	return st, nil
}

// Validate checks the settings
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Store name cannot be empty")
	}
	if len(s.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Store name cannot exceed 200 characters")
	}
	if s.DeliveryFee.IsNegative() {
		return shared.NewDomainError("INVALID_DELIVERY_FEE", "Delivery fee cannot be negative")
	}
	if s.MinOrder.IsNegative() {
		return shared.NewDomainError("INVALID_MIN_ORDER", "Minimum order cannot be negative")
	}
	if !hexColorPattern.MatchString(s.PrimaryColor) {
		return shared.NewDomainError("INVALID_COLOR", "Primary color must be in #RRGGBB format")
	}
	if _, err := valueobject.ParseTimeWindow(s.OpeningHours); err != nil {
		return shared.WrapDomainError("INVALID_OPENING_HOURS", "Opening hours must look like \"17:00 às 23:00\"", err)
	}
	if !s.Gateway.IsValid() {
		return shared.NewDomainError("INVALID_GATEWAY", "Gateway must be asaas, mercado_pago or manual")
	}
	return nil
}

func (st *Store) apply(s Settings) {
	st.Name = strings.TrimSpace(s.Name)
	st.Address = strings.TrimSpace(s.Address)
	st.OpeningHours = strings.TrimSpace(s.OpeningHours)
	st.IsOpen = s.IsOpen
	st.DeliveryFee = s.DeliveryFee.Round(2)
	st.MinOrder = s.MinOrder.Round(2)
	st.PrimaryColor = strings.ToUpper(s.PrimaryColor)
	st.BannerURL = strings.TrimSpace(s.BannerURL)
	st.LogoURL = strings.TrimSpace(s.LogoURL)
	st.Gateway = s.Gateway
	st.MetaPixelID = strings.TrimSpace(s.MetaPixelID)
	if s.MetaCAPIToken != nil {
		st.MetaCAPIToken = strings.TrimSpace(*s.MetaCAPIToken)
	}
}

// Update replaces the editable settings
func (st *Store) Update(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.apply(s)
	st.UpdatedAt = time.Now()
	st.IncrementVersion()
	st.AddDomainEvent(NewStoreUpdatedEvent(st))
	return nil
}

// SetOpen flips the manual open/closed switch
func (st *Store) SetOpen(open bool) {
	if st.IsOpen == open {
		return
	}
	st.IsOpen = open
	st.UpdatedAt = time.Now()
	st.IncrementVersion()
	st.AddDomainEvent(NewStoreUpdatedEvent(st))
}

// SetDailySuggestion sets or clears the highlighted product. Ownership of the
// product is checked by the caller.
func (st *Store) SetDailySuggestion(productID *string) {
	st.DailySuggestionProductID = productID
	st.UpdatedAt = time.Now()
	st.IncrementVersion()
	st.AddDomainEvent(NewStoreUpdatedEvent(st))
}

// IsOpenAt reports whether the store accepts orders at t. The manual switch
// must be on and t, in loc, must fall inside the opening hours with both
// ends included. Hours that do not parse keep the store closed.
func (st *Store) IsOpenAt(t time.Time, loc *time.Location) bool {
	if !st.IsOpen {
		return false
	}
	w, err := valueobject.ParseTimeWindow(st.OpeningHours)
	if err != nil {
		return false
	}
	if loc != nil {
		t = t.In(loc)
	}
	return w.Includes(valueobject.ClockOf(t))
}

// HasTracking reports whether Conversions API events can be sent for the store
func (st *Store) HasTracking() bool {
	return st.MetaPixelID != "" && st.MetaCAPIToken != ""
}

// NextStoreID returns the ID a new store gets when count stores exist
func NextStoreID(count int64) string {
	return strconv.FormatInt(count+1, 10)
}

// LessID orders store IDs numerically when both are numbers
func LessID(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	if aerr == nil {
		return true
	}
	if berr == nil {
		return false
	}
	return a < b
}
