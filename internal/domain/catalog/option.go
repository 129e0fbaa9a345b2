package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OptionGroup is a set of add-ons or choices offered with a product, such as
// "Escolha o molho". Customers must pick between MinSelection and
// MaxSelection items in total.
type OptionGroup struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Subtitle     string       `json:"subtitle"`
	MinSelection int          `json:"minSelection"`
	MaxSelection int          `json:"maxSelection"`
	Items        []OptionItem `json:"items"`
}

// OptionItem is one choice inside an option group
type OptionItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	IconURL     string          `json:"iconUrl,omitempty"`
}

// Required reports whether at least one item must be picked
func (g OptionGroup) Required() bool {
	return g.MinSelection > 0
}

// FindItem returns the item with the given ID
func (g OptionGroup) FindItem(id string) (OptionItem, bool) {
	for _, it := range g.Items {
		if it.ID == id {
			return it, true
		}
	}
	return OptionItem{}, false
}

func (g *OptionGroup) validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return shared.NewDomainError("INVALID_OPTION_GROUP", "Option group title cannot be empty")
	}
	if g.MinSelection < 0 || g.MaxSelection < 0 {
		return shared.NewDomainError("INVALID_OPTION_GROUP", fmt.Sprintf("Option group %q has a negative selection limit", g.Title))
	}
	if g.MinSelection > g.MaxSelection {
		return shared.NewDomainError("INVALID_OPTION_GROUP", fmt.Sprintf("Option group %q: minimum cannot exceed maximum", g.Title))
	}
	if len(g.Items) > 0 && g.MaxSelection < 1 {
		return shared.NewDomainError("INVALID_OPTION_GROUP", fmt.Sprintf("Option group %q: maximum must be at least 1", g.Title))
	}
	seen := make(map[string]struct{}, len(g.Items))
	for _, it := range g.Items {
		if strings.TrimSpace(it.Name) == "" {
			return shared.NewDomainError("INVALID_OPTION_ITEM", fmt.Sprintf("Option group %q has an item without a name", g.Title))
		}
		if it.Price.IsNegative() {
			return shared.NewDomainError("INVALID_OPTION_ITEM", fmt.Sprintf("Item %q cannot have a negative price", it.Name))
		}
		if _, dup := seen[it.ID]; dup {
			return shared.NewDomainError("DUPLICATE_OPTION_ID", fmt.Sprintf("Duplicate item ID %q in group %q", it.ID, g.Title))
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// assignIDs fills in missing group and item IDs. With fresh set every ID is
// regenerated.
func assignIDs(groups []OptionGroup, fresh bool) {
	for i := range groups {
		if fresh || groups[i].ID == "" {
			groups[i].ID = uuid.NewString()
		}
		for j := range groups[i].Items {
			if fresh || groups[i].Items[j].ID == "" {
				groups[i].Items[j].ID = uuid.NewString()
			}
			groups[i].Items[j].Price = groups[i].Items[j].Price.Round(2)
		}
	}
}

func cloneGroups(groups []OptionGroup) []OptionGroup {
	if groups == nil {
		return nil
	}
	out := make([]OptionGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Items = append([]OptionItem(nil), g.Items...)
	}
	return out
}

func validateGroups(groups []OptionGroup) error {
	seen := make(map[string]struct{}, len(groups))
	for i := range groups {
		if err := groups[i].validate(); err != nil {
			return err
		}
		if _, dup := seen[groups[i].ID]; dup {
			return shared.NewDomainError("DUPLICATE_OPTION_ID", fmt.Sprintf("Duplicate option group ID %q", groups[i].ID))
		}
		seen[groups[i].ID] = struct{}{}
	}
	return nil
}
