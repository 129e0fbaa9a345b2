package cart

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	// MaxObservationLength is the longest note a customer can attach to a line
	MaxObservationLength = 500
	// MaxLineQuantity caps the quantity of a single line
	MaxLineQuantity = 99
)

// Selection picks Count units of one option item
type Selection struct {
	OptionID string `json:"optionId"`
	ItemID   string `json:"itemId"`
	Count    int    `json:"count"`
}

// LineRequest is what the storefront sends to add a product to the cart
type LineRequest struct {
	ProductID   uuid.UUID   `json:"productId"`
	Quantity    int         `json:"quantity"`
	Observation string      `json:"observation,omitempty"`
	Selections  []Selection `json:"selections,omitempty"`
}

// SelectedItem is a priced snapshot of a chosen option item
type SelectedItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Count int             `json:"count"`
}

// SelectedOption groups the chosen items of one option group
type SelectedOption struct {
	OptionID string         `json:"optionId"`
	Title    string         `json:"title"`
	Items    []SelectedItem `json:"items"`
}

// Line is a priced cart line. Names and prices are snapshots taken when the
// line was priced.
type Line struct {
	ID              string           `json:"id"`
	ProductID       uuid.UUID        `json:"productId"`
	Name            string           `json:"name"`
	BasePrice       decimal.Decimal  `json:"basePrice"`
	UnitPrice       decimal.Decimal  `json:"unitPrice"`
	Quantity        int              `json:"quantity"`
	Observation     string           `json:"observation,omitempty"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
	LineTotal       decimal.Decimal  `json:"lineTotal"`
	// Upsell marks the checkout suggestion; coupons do not discount it
	Upsell          bool             `json:"upsell,omitempty"`
}

// Request returns the request that reproduces this line
func (l Line) Request() LineRequest {
	req := LineRequest{ProductID: l.ProductID, Quantity: l.Quantity, Observation: l.Observation}
	for _, opt := range l.SelectedOptions {
		for _, it := range opt.Items {
			req.Selections = append(req.Selections, Selection{OptionID: opt.OptionID, ItemID: it.ID, Count: it.Count})
		}
	}
	return req
}

// Pricing errors
var (
	ErrInvalidSelection  = shared.NewDomainError("INVALID_SELECTION", "Selected option does not exist")
	ErrSelectionBelowMin = shared.NewDomainError("SELECTION_BELOW_MIN", "Required options are missing")
	ErrSelectionAboveMax = shared.NewDomainError("SELECTION_ABOVE_MAX", "Too many options selected")
	ErrInvalidQuantity   = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be between 1 and 99")
	ErrObservationLength = shared.NewDomainError("INVALID_OBSERVATION", "Observation cannot exceed 500 characters")
)

// PriceLine validates req against the product's option groups and prices it.
// unitPrice is the base price plus every selected item's price times its
// count; the line total is unitPrice times quantity.
func PriceLine(p *catalog.Product, req LineRequest) (Line, error) {
	if req.Quantity < 1 || req.Quantity > MaxLineQuantity {
		return Line{}, ErrInvalidQuantity
	}
	observation := strings.TrimSpace(req.Observation)
	if utf8.RuneCountInString(observation) > MaxObservationLength {
		return Line{}, ErrObservationLength
	}

	counts := make(map[string]int, len(p.Options))
	picked := make(map[string][]SelectedItem, len(p.Options))
	unit := p.Price
	for _, sel := range req.Selections {
		group, ok := p.FindOption(sel.OptionID)
		if !ok {
			return Line{}, shared.NewDomainError(ErrInvalidSelection.Code, fmt.Sprintf("Option group %q does not exist", sel.OptionID))
		}
		item, ok := group.FindItem(sel.ItemID)
		if !ok {
			return Line{}, shared.NewDomainError(ErrInvalidSelection.Code, fmt.Sprintf("Item %q does not exist in %q", sel.ItemID, group.Title))
		}
		if sel.Count < 1 {
			return Line{}, shared.NewDomainError(ErrInvalidSelection.Code, fmt.Sprintf("Count for %q must be at least 1", item.Name))
		}
		counts[group.ID] += sel.Count
		picked[group.ID] = mergeItem(picked[group.ID], SelectedItem{ID: item.ID, Name: item.Name, Price: item.Price, Count: sel.Count})
		unit = unit.Add(item.Price.Mul(decimal.NewFromInt(int64(sel.Count))))
	}

	var missing []string
	var selected []SelectedOption
	for _, g := range p.Options {
		n := counts[g.ID]
		if n < g.MinSelection {
			missing = append(missing, g.Title)
			continue
		}
		if n > g.MaxSelection {
			return Line{}, shared.NewDomainError(ErrSelectionAboveMax.Code,
				fmt.Sprintf("Selecione no máximo %d opções em %s", g.MaxSelection, g.Title))
		}
		if n > 0 {
			selected = append(selected, SelectedOption{OptionID: g.ID, Title: g.Title, Items: picked[g.ID]})
		}
	}
	if len(missing) > 0 {
		return Line{}, shared.NewDomainError(ErrSelectionBelowMin.Code,
			"Selecione as opções obrigatórias: "+strings.Join(missing, ", "))
	}

	unit = unit.Round(2)
	return Line{
		ID:              uuid.NewString(),
		ProductID:       p.ID,
		Name:            p.Name,
		BasePrice:       p.Price,
		UnitPrice:       unit,
		Quantity:        req.Quantity,
		Observation:     observation,
		SelectedOptions: selected,
		LineTotal:       unit.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2),
	}, nil
}

// UpsellLine is the checkout suggestion added once at its base price
func UpsellLine(p *catalog.Product) Line {
	return Line{
		ID:        uuid.NewString(),
		ProductID: p.ID,
		Name:      p.Name,
		BasePrice: p.Price,
		UnitPrice: p.Price,
		Quantity:  1,
		LineTotal: p.Price,
		Upsell:    true,
	}
}

// mergeItem adds it to items, summing counts when the same item is picked twice
func mergeItem(items []SelectedItem, it SelectedItem) []SelectedItem {
	for i := range items {
		if items[i].ID == it.ID {
			items[i].Count += it.Count
			return items
		}
	}
	return append(items, it)
}
