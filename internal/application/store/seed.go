package store

import (
	_ "embed"
	"fmt"

	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the content written into a newly created store
type Seed struct {
	Store struct {
		Name         string `yaml:"name"`
		Address      string `yaml:"address"`
		OpeningHours string `yaml:"opening_hours"`
		IsOpen       bool   `yaml:"is_open"`
		DeliveryFee  string `yaml:"delivery_fee"`
		MinOrder     string `yaml:"min_order"`
		PrimaryColor string `yaml:"primary_color"`
		BannerURL    string `yaml:"banner_url"`
		LogoURL      string `yaml:"logo_url"`
		Gateway      string `yaml:"gateway"`
	} `yaml:"store"`
	Categories []SeedCategory `yaml:"categories"`
	Products   []SeedProduct  `yaml:"products"`
	Coupons    []SeedCoupon   `yaml:"coupons"`
}

// SeedCategory is a default category; Key links products to it
type SeedCategory struct {
	Key       string `yaml:"key"`
	Name      string `yaml:"name"`
	SortOrder int    `yaml:"sort_order"`
}

// SeedProduct is a default product
type SeedProduct struct {
	Category    string `yaml:"category"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	ImageURL    string `yaml:"image_url"`
}

// SeedCoupon is a default coupon
type SeedCoupon struct {
	Code               string `yaml:"code"`
	DiscountPercentage string `yaml:"discount_percentage"`
}

// DefaultSeed parses the embedded seed file
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

// ParseSeed parses a seed document
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &s, nil
}

// Settings returns the default store settings
func (s *Seed) Settings() (store.Settings, error) {
	fee, err := decimal.NewFromString(s.Store.DeliveryFee)
	if err != nil {
		return store.Settings{}, fmt.Errorf("seed delivery_fee: %w", err)
	}
	minOrder, err := decimal.NewFromString(s.Store.MinOrder)
	if err != nil {
		return store.Settings{}, fmt.Errorf("seed min_order: %w", err)
	}
	return store.Settings{
		Name:         s.Store.Name,
		Address:      s.Store.Address,
		OpeningHours: s.Store.OpeningHours,
		IsOpen:       s.Store.IsOpen,
		DeliveryFee:  fee,
		MinOrder:     minOrder,
		PrimaryColor: s.Store.PrimaryColor,
		BannerURL:    s.Store.BannerURL,
		LogoURL:      s.Store.LogoURL,
		Gateway:      store.Gateway(s.Store.Gateway),
	}, nil
}

// Build creates the seed categories, products and coupons for storeID
func (s *Seed) Build(storeID string) ([]*catalog.Category, []*catalog.Product, []*coupon.Coupon, error) {
	byKey := make(map[string]*catalog.Category, len(s.Categories))
	categories := make([]*catalog.Category, 0, len(s.Categories))
	for _, sc := range s.Categories {
		c, err := catalog.NewCategory(storeID, sc.Name, sc.SortOrder)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("seed category %q: %w", sc.Name, err)
		}
		byKey[sc.Key] = c
		categories = append(categories, c)
	}

	products := make([]*catalog.Product, 0, len(s.Products))
	for _, sp := range s.Products {
		c, ok := byKey[sp.Category]
		if !ok {
			return nil, nil, nil, fmt.Errorf("seed product %q references unknown category %q", sp.Name, sp.Category)
		}
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("seed product %q price: %w", sp.Name, err)
		}
		p, err := catalog.NewProduct(storeID, catalog.ProductInput{
			CategoryID:  c.ID,
			Name:        sp.Name,
			Description: sp.Description,
			Price:       price,
			ImageURL:    sp.ImageURL,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("seed product %q: %w", sp.Name, err)
		}
		products = append(products, p)
	}

	coupons := make([]*coupon.Coupon, 0, len(s.Coupons))
	for _, sc := range s.Coupons {
		pct, err := decimal.NewFromString(sc.DiscountPercentage)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("seed coupon %q: %w", sc.Code, err)
		}
		c, err := coupon.NewCoupon(storeID, sc.Code, pct)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("seed coupon %q: %w", sc.Code, err)
		}
		coupons = append(coupons, c)
	}
	return categories, products, coupons, nil
}
