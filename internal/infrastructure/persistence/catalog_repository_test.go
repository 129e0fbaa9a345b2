package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCatalogRepositories(t *testing.T) {
	db := newTestDB(t)
	categories := NewGormCategoryRepository(db)
	products := NewGormProductRepository(db)
	ctx := t.Context()

	temakis, err := catalog.NewCategory("1", "Temakis", 2)
	require.NoError(t, err)
	combos, err := catalog.NewCategory("1", "Combinados", 1)
	require.NoError(t, err)
	other, err := catalog.NewCategory("2", "Bebidas", 1)
	require.NoError(t, err)
	for _, c := range []*catalog.Category{temakis, combos, other} {
		require.NoError(t, categories.Save(ctx, c))
	}

	newProduct := func(cat *catalog.Category, name string) *catalog.Product {
		p, err := catalog.NewProduct(cat.StoreID, catalog.ProductInput{
			CategoryID: cat.ID,
			Name:       name,
			Price:      decimal.RequireFromString("29.90"),
			Options: []catalog.OptionGroup{{
				Title: "Molho", MinSelection: 1, MaxSelection: 1,
				Items: []catalog.OptionItem{{Name: "Tarê", Price: decimal.RequireFromString("1.50")}},
			}},
		})
		require.NoError(t, err)
		require.NoError(t, products.Save(ctx, p))
		return p
	}
	salmon := newProduct(temakis, "Temaki Salmão")
	newProduct(temakis, "Temaki 100% Atum")
	newProduct(combos, "Combo 20 peças")

	t.Run("categories ordered by sort order", func(t *testing.T) {
		list, err := categories.FindAll(ctx, "1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Combinados", list[0].Name)
		assert.Equal(t, "Temakis", list[1].Name)

		n, err := categories.Count(ctx, "1")
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("category lookup is scoped by store", func(t *testing.T) {
		_, err := categories.FindByID(ctx, "1", other.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("product round trip keeps options", func(t *testing.T) {
		got, err := products.FindByID(ctx, "1", salmon.ID)
		require.NoError(t, err)
		assert.Equal(t, "29.90", got.Price.StringFixed(2))
		require.Len(t, got.Options, 1)
		assert.Equal(t, salmon.Options[0].ID, got.Options[0].ID)
		assert.Equal(t, "1.50", got.Options[0].Items[0].Price.StringFixed(2))
	})

	t.Run("filter by category and search", func(t *testing.T) {
		list, err := products.FindAll(ctx, "1", catalog.ProductFilter{CategoryID: &temakis.ID})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = products.FindAll(ctx, "1", catalog.ProductFilter{Search: "salmão"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, salmon.ID, list[0].ID)

		list, err = products.FindAll(ctx, "1", catalog.ProductFilter{Search: "100%"})
		require.NoError(t, err)
		assert.Len(t, list, 1, "percent sign is matched literally")
	})

	t.Run("find by ids", func(t *testing.T) {
		list, err := products.FindByIDs(ctx, "1", []uuid.UUID{salmon.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = products.FindByIDs(ctx, "1", nil)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete category cascades to products", func(t *testing.T) {
		require.NoError(t, categories.DeleteWithProducts(ctx, "1", temakis.ID))

		list, err := products.FindAll(ctx, "1", catalog.ProductFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Combo 20 peças", list[0].Name)

		assert.ErrorIs(t, categories.DeleteWithProducts(ctx, "1", temakis.ID), shared.ErrNotFound)
	})

	t.Run("delete missing product", func(t *testing.T) {
		assert.ErrorIs(t, products.Delete(ctx, "1", uuid.New()), shared.ErrNotFound)
	})
}
