package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	couponapp "github.com/japabox/storefront/internal/application/coupon"
	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/cache"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/japabox/storefront/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type cartFixture struct {
	svc     *Service
	quoter  *Quoter
	temaki  *catalog.Product
	drink   *catalog.Product
	stores  *persistence.GormStoreRepository
	coupons *persistence.GormCouponRepository
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	f := &cartFixture{
		stores:  persistence.NewGormStoreRepository(db.DB),
		coupons: persistence.NewGormCouponRepository(db.DB),
	}
	products := persistence.NewGormProductRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)

	st, err := store.NewStore("1", store.Settings{
		Name:         "Japan Box Express",
		OpeningHours: "17:00 às 23:00",
		DeliveryFee:  dec("5"),
		MinOrder:     dec("30"),
		PrimaryColor: "#E31B23",
		Gateway:      store.GatewayAsaas,
	})
	require.NoError(t, err)
	require.NoError(t, f.stores.Save(ctx, st))

	cat, err := catalog.NewCategory("1", "Temakis", 1)
	require.NoError(t, err)
	require.NoError(t, categories.Save(ctx, cat))

	f.temaki, err = catalog.NewProduct("1", catalog.ProductInput{
		CategoryID: cat.ID,
		Name:       "Temaki Salmão",
		Price:      dec("29.90"),
		Options: []catalog.OptionGroup{{
			ID: "sauce", Title: "Molho", MinSelection: 1, MaxSelection: 1,
			Items: []catalog.OptionItem{{ID: "tare", Name: "Tarê", Price: dec("2.00")}},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, products.Save(ctx, f.temaki))

	f.drink, err = catalog.NewProduct("1", catalog.ProductInput{CategoryID: cat.ID, Name: "Água", Price: dec("4.00")})
	require.NoError(t, err)
	require.NoError(t, products.Save(ctx, f.drink))

	bemvindo, err := coupon.NewCoupon("1", "BEMVINDO", dec("10"))
	require.NoError(t, err)
	require.NoError(t, f.coupons.Save(ctx, bemvindo))

	resolver := couponapp.NewService(f.stores, f.coupons)
	f.quoter = NewQuoter(f.stores, products, resolver)
	f.svc = NewService(cache.NewInMemoryCartStore(time.Hour), f.stores, f.quoter, resolver, nil)
	return f
}

func (f *cartFixture) temakiLine() AddLineRequest {
	return AddLineRequest{
		ProductID:  f.temaki.ID,
		Quantity:   2,
		Selections: []cart.Selection{{OptionID: "sauce", ItemID: "tare", Count: 1}},
	}
}

func TestService_CartLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	c, err := f.svc.Create(ctx, CreateCartRequest{StoreID: "1"})
	require.NoError(t, err)
	require.NotEmpty(t, c.Token)
	assert.Empty(t, c.Lines)

	c, err = f.svc.AddLine(ctx, c.Token, f.temakiLine())
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "31.90", c.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "63.80", c.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "68.80", c.Totals.Total.StringFixed(2))

	applied, err := f.svc.ApplyCoupon(ctx, c.Token, "bemvindo")
	require.NoError(t, err)
	assert.True(t, applied.Applied)
	assert.Equal(t, "BEMVINDO", applied.Cart.CouponCode)
	assert.Equal(t, "6.38", applied.Cart.Totals.Discount.StringFixed(2))

	rejected, err := f.svc.ApplyCoupon(ctx, c.Token, "NOPE")
	require.NoError(t, err)
	assert.False(t, rejected.Applied)
	assert.Equal(t, "Cupom inválido ou expirado", rejected.Message)
	assert.Equal(t, "BEMVINDO", rejected.Cart.CouponCode, "a bad code keeps the current coupon")

	lineID := c.Lines[0].ID
	c, err = f.svc.UpdateQuantity(ctx, c.Token, lineID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ItemCount)
	assert.Equal(t, "95.70", c.Lines[0].LineTotal.StringFixed(2))

	c, err = f.svc.UpdateQuantity(ctx, c.Token, lineID, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Lines)

	_, err = f.svc.RemoveLine(ctx, c.Token, lineID)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)

	c, err = f.svc.Clear(ctx, c.Token)
	require.NoError(t, err)
	assert.Empty(t, c.CouponCode)

	_, err = f.svc.Get(ctx, "missing")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "CART_NOT_FOUND", de.Code)
}

func TestService_AddLineValidatesOptions(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	c, err := f.svc.Create(ctx, CreateCartRequest{StoreID: "1"})
	require.NoError(t, err)

	_, err = f.svc.AddLine(ctx, c.Token, AddLineRequest{ProductID: f.temaki.ID, Quantity: 1})
	assert.ErrorIs(t, err, cart.ErrSelectionBelowMin)

	_, err = f.svc.AddLine(ctx, c.Token, AddLineRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestService_Quote(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	c, err := f.svc.Create(ctx, CreateCartRequest{StoreID: "1"})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, c.Token, f.temakiLine())
	require.NoError(t, err)

	t.Run("pickup with upsell", func(t *testing.T) {
		q, err := f.svc.Quote(ctx, c.Token, CartQuoteRequest{Fulfilment: "pickup", Upsell: true})
		require.NoError(t, err)
		require.Len(t, q.Lines, 2)
		// no daily suggestion: the first product by name is offered
		assert.Equal(t, "Temaki Salmão", q.Lines[1].Name)
		assert.True(t, q.Totals.DeliveryFee.IsZero())
		assert.Equal(t, "93.70", q.Totals.Total.StringFixed(2))
	})

	t.Run("daily suggestion is the upsell", func(t *testing.T) {
		st, err := f.stores.FindByID(ctx, "1")
		require.NoError(t, err)
		id := f.drink.ID.String()
		st.SetDailySuggestion(&id)
		require.NoError(t, f.stores.Save(ctx, st))

		q, err := f.svc.Quote(ctx, c.Token, CartQuoteRequest{Upsell: true})
		require.NoError(t, err)
		require.Len(t, q.Lines, 2)
		assert.Equal(t, "Água", q.Lines[1].Name)
		assert.Equal(t, "67.80", q.Totals.Subtotal.StringFixed(2))
		assert.Equal(t, "72.80", q.Totals.Total.StringFixed(2))
	})

	t.Run("stateless quote ignores client prices", func(t *testing.T) {
		q, err := f.svc.QuoteLines(ctx, QuoteRequest{
			StoreID:    "1",
			Lines:      []cart.LineRequest{{ProductID: f.drink.ID, Quantity: 3}},
			CouponCode: "BEMVINDO",
			Fulfilment: "delivery",
		})
		require.NoError(t, err)
		assert.Equal(t, "12.00", q.Totals.Subtotal.StringFixed(2))
		assert.Equal(t, "1.20", q.Totals.Discount.StringFixed(2))
		assert.Equal(t, "15.80", q.Totals.Total.StringFixed(2))
	})

	t.Run("unknown coupon fails the stateless quote", func(t *testing.T) {
		_, err := f.svc.QuoteLines(ctx, QuoteRequest{
			StoreID:    "1",
			Lines:      []cart.LineRequest{{ProductID: f.drink.ID, Quantity: 1}},
			CouponCode: "NOPE",
		})
		assert.ErrorIs(t, err, coupon.ErrCouponNotFound)
	})
}
