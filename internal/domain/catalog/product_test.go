package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sauceGroup() OptionGroup {
	return OptionGroup{
		Title:        "Molhos",
		Subtitle:     "Escolha até 2",
		MinSelection: 1,
		MaxSelection: 2,
		Items: []OptionItem{
			{Name: "Tarê", Price: decimal.Zero},
			{Name: "Shoyu extra", Price: decimal.RequireFromString("1.50")},
		},
	}
}

func validInput() ProductInput {
	return ProductInput{
		CategoryID:  uuid.New(),
		Name:        "COMBO ROLL",
		Description: "Rolls variados com salmão",
		Price:       decimal.RequireFromString("47.99"),
		Options:     []OptionGroup{sauceGroup()},
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestNewProduct(t *testing.T) {
	t.Run("creates product and fills option IDs", func(t *testing.T) {
		p, err := NewProduct("1", validInput())
		require.NoError(t, err)

		assert.Equal(t, "1", p.StoreID)
		assert.Equal(t, "47.99", p.Price.StringFixed(2))
		require.Len(t, p.Options, 1)
		assert.NotEmpty(t, p.Options[0].ID)
		assert.NotEmpty(t, p.Options[0].Items[0].ID)
		assert.NotEqual(t, p.Options[0].Items[0].ID, p.Options[0].Items[1].ID)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
		assert.Equal(t, "1", events[0].StoreID())
	})

	t.Run("keeps given option IDs", func(t *testing.T) {
		in := validInput()
		in.Options[0].ID = "sauce"
		in.Options[0].Items[0].ID = "tare"
		p, err := NewProduct("1", in)
		require.NoError(t, err)
		assert.Equal(t, "sauce", p.Options[0].ID)
		assert.Equal(t, "tare", p.Options[0].Items[0].ID)
	})

	t.Run("does not mutate caller's options", func(t *testing.T) {
		in := validInput()
		_, err := NewProduct("1", in)
		require.NoError(t, err)
		assert.Empty(t, in.Options[0].ID)
	})

	tests := []struct {
		name     string
		mutate   func(*ProductInput)
		wantCode string
	}{
		{"empty name", func(in *ProductInput) { in.Name = "" }, "INVALID_NAME"},
		{"missing category", func(in *ProductInput) { in.CategoryID = uuid.Nil }, "INVALID_CATEGORY"},
		{"negative price", func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) }, "INVALID_PRICE"},
		{"min above max", func(in *ProductInput) { in.Options[0].MinSelection = 3 }, "INVALID_OPTION_GROUP"},
		{"zero max with items", func(in *ProductInput) {
			in.Options[0].MinSelection = 0
			in.Options[0].MaxSelection = 0
		}, "INVALID_OPTION_GROUP"},
		{"negative item price", func(in *ProductInput) { in.Options[0].Items[1].Price = decimal.NewFromInt(-2) }, "INVALID_OPTION_ITEM"},
		{"duplicate item IDs", func(in *ProductInput) {
			in.Options[0].Items[0].ID = "x"
			in.Options[0].Items[1].ID = "x"
		}, "DUPLICATE_OPTION_ID"},
		{"duplicate group IDs", func(in *ProductInput) {
			g := sauceGroup()
			g.ID = "same"
			in.Options = []OptionGroup{g, g}
			in.Options[1].Items = []OptionItem{{ID: "other", Name: "Gengibre"}}
		}, "DUPLICATE_OPTION_ID"},
		{"half promo window", func(in *ProductInput) { in.PromoStartTime = strPtr("11:00") }, "INVALID_PROMO_WINDOW"},
		{"bad promo clock", func(in *ProductInput) {
			in.PromoStartTime = strPtr("11h")
			in.PromoEndTime = strPtr("14:00")
		}, "INVALID_PROMO_WINDOW"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := NewProduct("1", in)
			assert.Equal(t, tt.wantCode, codeOf(t, err))
		})
	}
}

func TestProduct_Duplicate(t *testing.T) {
	p, err := NewProduct("1", validInput())
	require.NoError(t, err)

	dup, err := p.Duplicate()
	require.NoError(t, err)

	assert.NotEqual(t, p.ID, dup.ID)
	assert.Equal(t, "COMBO ROLL (Cópia)", dup.Name)
	assert.True(t, p.Price.Equal(dup.Price))
	require.Len(t, dup.Options, 1)
	assert.NotEqual(t, p.Options[0].ID, dup.Options[0].ID)
	assert.NotEqual(t, p.Options[0].Items[0].ID, dup.Options[0].Items[0].ID)
	assert.Equal(t, p.Options[0].Items[1].Name, dup.Options[0].Items[1].Name)
}

func TestProduct_Update(t *testing.T) {
	p, err := NewProduct("1", validInput())
	require.NoError(t, err)
	p.ClearDomainEvents()

	in := p.Input()
	in.Price = decimal.RequireFromString("39.9")
	in.Options = nil
	require.NoError(t, p.Update(in))

	assert.Equal(t, "39.90", p.Price.StringFixed(2))
	assert.Empty(t, p.Options)
	assert.Equal(t, 2, p.GetVersion())
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeProductUpdated, p.GetDomainEvents()[0].EventType())
}

func TestProduct_OnPromotionAt(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 5, 1, h, m, 0, 0, time.UTC) }

	t.Run("no old price", func(t *testing.T) {
		p, _ := NewProduct("1", validInput())
		assert.False(t, p.OnPromotionAt(at(12, 0)))
	})

	t.Run("old price not higher", func(t *testing.T) {
		in := validInput()
		in.OldPrice = decPtr("47.99")
		p, _ := NewProduct("1", in)
		assert.False(t, p.OnPromotionAt(at(12, 0)))
	})

	t.Run("all day without window", func(t *testing.T) {
		in := validInput()
		in.OldPrice = decPtr("59.90")
		p, _ := NewProduct("1", in)
		assert.True(t, p.OnPromotionAt(at(3, 0)))
	})

	t.Run("inside and outside window", func(t *testing.T) {
		in := validInput()
		in.OldPrice = decPtr("59.90")
		in.PromoStartTime = strPtr("11:00")
		in.PromoEndTime = strPtr("14:00")
		p, _ := NewProduct("1", in)
		assert.True(t, p.OnPromotionAt(at(11, 0)))
		assert.True(t, p.OnPromotionAt(at(13, 59)))
		assert.False(t, p.OnPromotionAt(at(14, 0)))
	})

	t.Run("overnight window", func(t *testing.T) {
		in := validInput()
		in.OldPrice = decPtr("59.90")
		in.PromoStartTime = strPtr("22:00")
		in.PromoEndTime = strPtr("02:00")
		p, _ := NewProduct("1", in)
		assert.True(t, p.OnPromotionAt(at(23, 30)))
		assert.True(t, p.OnPromotionAt(at(1, 0)))
		assert.False(t, p.OnPromotionAt(at(12, 0)))
	})
}

func TestOptionGroup_FindItem(t *testing.T) {
	g := sauceGroup()
	g.Items[0].ID = "tare"
	it, ok := g.FindItem("tare")
	require.True(t, ok)
	assert.Equal(t, "Tarê", it.Name)
	_, ok = g.FindItem("nope")
	assert.False(t, ok)
	assert.True(t, g.Required())
}
