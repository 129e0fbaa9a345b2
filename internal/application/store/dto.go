package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/shopspring/decimal"
)

// UpdateStoreRequest replaces a store configuration
type UpdateStoreRequest struct {
	Name          string          `json:"name" binding:"required,max=200"`
	Address       string          `json:"address" binding:"max=500"`
	OpeningHours  string          `json:"openingHours" binding:"required,max=50"`
	IsOpen        bool            `json:"isOpen"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	MinOrder      decimal.Decimal `json:"minOrder"`
	PrimaryColor  string          `json:"primaryColor" binding:"required"`
	BannerURL     string          `json:"bannerUrl" binding:"max=1000"`
	LogoURL       string          `json:"logoUrl" binding:"max=1000"`
	Gateway       string          `json:"gateway" binding:"required,oneof=asaas mercado_pago manual"`
	MetaPixelID   string          `json:"metaPixelId" binding:"max=50"`
	MetaCAPIToken *string         `json:"metaCapiToken"`
}

// Settings converts the request to domain settings
func (r UpdateStoreRequest) Settings() store.Settings {
	return store.Settings{
		Name:          r.Name,
		Address:       r.Address,
		OpeningHours:  r.OpeningHours,
		IsOpen:        r.IsOpen,
		DeliveryFee:   r.DeliveryFee,
		MinOrder:      r.MinOrder,
		PrimaryColor:  r.PrimaryColor,
		BannerURL:     r.BannerURL,
		LogoURL:       r.LogoURL,
		Gateway:       store.Gateway(r.Gateway),
		MetaPixelID:   r.MetaPixelID,
		MetaCAPIToken: r.MetaCAPIToken,
	}
}

// SetOpenRequest flips the manual open switch
type SetOpenRequest struct {
	IsOpen bool `json:"isOpen"`
}

// SetDailySuggestionRequest sets or clears the highlighted product
type SetDailySuggestionRequest struct {
	ProductID *uuid.UUID `json:"productId"`
}

// StoreResponse is a store configuration in API responses. The CAPI token
// is never returned; HasMetaCAPIToken tells the admin whether one is set.
type StoreResponse struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	Address                  string          `json:"address"`
	OpeningHours             string          `json:"openingHours"`
	IsOpen                   bool            `json:"isOpen"`
	OpenNow                  bool            `json:"openNow"`
	DeliveryFee              decimal.Decimal `json:"deliveryFee"`
	MinOrder                 decimal.Decimal `json:"minOrder"`
	PrimaryColor             string          `json:"primaryColor"`
	BannerURL                string          `json:"bannerUrl"`
	LogoURL                  string          `json:"logoUrl"`
	Gateway                  string          `json:"gateway"`
	DailySuggestionProductID *string         `json:"dailySuggestionProductId"`
	MetaPixelID              string          `json:"metaPixelId,omitempty"`
	HasMetaCAPIToken         bool            `json:"hasMetaCapiToken"`
	UpdatedAt                time.Time       `json:"updatedAt"`
}

// ToStoreResponse converts a store to its response
func ToStoreResponse(st *store.Store, openNow bool) *StoreResponse {
	return &StoreResponse{
		ID:                       st.ID,
		Name:                     st.Name,
		Address:                  st.Address,
		OpeningHours:             st.OpeningHours,
		IsOpen:                   st.IsOpen,
		OpenNow:                  openNow,
		DeliveryFee:              st.DeliveryFee,
		MinOrder:                 st.MinOrder,
		PrimaryColor:             st.PrimaryColor,
		BannerURL:                st.BannerURL,
		LogoURL:                  st.LogoURL,
		Gateway:                  string(st.Gateway),
		DailySuggestionProductID: st.DailySuggestionProductID,
		MetaPixelID:              st.MetaPixelID,
		HasMetaCAPIToken:         st.MetaCAPIToken != "",
		UpdatedAt:                st.UpdatedAt,
	}
}
