package persistence

import (
	"testing"
	"time"

	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeTestOrder(t *testing.T, id, phone, total string, created time.Time) *order.Order {
	t.Helper()
	o, err := order.Place(order.Draft{
		ID:       id,
		StoreID:  "1",
		Customer: order.Customer{Name: "Ana", Phone: phone, CPF: "12345678909"},
		Lines: []cart.Line{{
			ID: "l1", Name: "COMBO ROLL", Quantity: 1,
			UnitPrice: decimal.RequireFromString(total), LineTotal: decimal.RequireFromString(total),
		}},
		Totals:        cart.Totals{Subtotal: decimal.RequireFromString(total), Total: decimal.RequireFromString(total)},
		PaymentMethod: order.PaymentPix,
		Address:       order.Address{Street: "Rua A", Number: "1", Type: cart.FulfilmentPickup},
		Gateway:       "manual",
	})
	require.NoError(t, err)
	o.CreatedAt = created
	return o
}

func TestGormOrderRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := t.Context()

	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)

	a := placeTestOrder(t, "300001", "11987654321", "50.00", yesterday)
	b := placeTestOrder(t, "300002", "11987654321", "30.00", now)
	c := placeTestOrder(t, "300003", "21999998888", "20.00", now)
	for _, o := range []*order.Order{a, b, c} {
		require.NoError(t, repo.Create(ctx, o))
	}
	require.NoError(t, c.Cancel("teste"))
	require.NoError(t, repo.Save(ctx, c))

	t.Run("find by id keeps snapshot", func(t *testing.T) {
		got, err := repo.FindByID(ctx, "300001")
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "COMBO ROLL", got.Items[0].Name)
		assert.Equal(t, cart.FulfilmentPickup, got.DeliveryAddress().Type)

		_, err = repo.FindByID(ctx, "999999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("history by phone newest first", func(t *testing.T) {
		list, err := repo.FindByPhone(ctx, "", "11987654321")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "300002", list[0].ID)
	})

	t.Run("admin list hides cancelled", func(t *testing.T) {
		list, total, err := repo.List(ctx, "1", order.ListFilter{Filter: shared.Filter{Page: 1, PageSize: 10}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, list, 2)

		list, total, err = repo.List(ctx, "1", order.ListFilter{Filter: shared.Filter{Page: 1, PageSize: 10}, Status: order.StatusCancelled})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "300003", list[0].ID)
	})

	t.Run("admin list sorts by whitelisted column", func(t *testing.T) {
		f := shared.Filter{Page: 1, PageSize: 10, OrderBy: "total", OrderDir: "asc"}
		list, _, err := repo.List(ctx, "1", order.ListFilter{Filter: f})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "300002", list[0].ID)

		f.OrderBy = "customer_cpf"
		list, _, err = repo.List(ctx, "1", order.ListFilter{Filter: f})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "300001", list[0].ID, "unknown columns fall back to created_at")
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.ExistsByID(ctx, "300002")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("counts and revenue", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx, "1")
		require.NoError(t, err)
		byStatus := map[order.Status]int64{}
		for _, sc := range counts {
			byStatus[sc.Status] = sc.Count
		}
		assert.EqualValues(t, 2, byStatus[order.StatusPending])
		assert.EqualValues(t, 1, byStatus[order.StatusCancelled])

		all, err := repo.SumRevenue(ctx, "1", nil)
		require.NoError(t, err)
		assert.Equal(t, "80.00", all.Total.StringFixed(2))
		assert.EqualValues(t, 2, all.Count)

		since := now.Add(-time.Hour)
		today, err := repo.SumRevenue(ctx, "1", &since)
		require.NoError(t, err)
		assert.Equal(t, "30.00", today.Total.StringFixed(2))

		empty, err := repo.SumRevenue(ctx, "9", nil)
		require.NoError(t, err)
		assert.True(t, empty.Total.IsZero())
	})

	t.Run("find by gateway payment", func(t *testing.T) {
		b.AttachPayment(order.Payment{Gateway: "asaas", GatewayPaymentID: "pay_123"})
		require.NoError(t, repo.Save(ctx, b))
		got, err := repo.FindByGatewayPaymentID(ctx, "pay_123")
		require.NoError(t, err)
		assert.Equal(t, "300002", got.ID)
	})

	t.Run("awaiting payment", func(t *testing.T) {
		list, err := repo.FindAwaitingPayment(ctx, now.Add(-48*time.Hour), now.Add(time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, list, 1, "only orders with a gateway payment qualify")
		assert.Equal(t, "300002", list[0].ID)

		list, err = repo.FindAwaitingPayment(ctx, now.Add(-48*time.Hour), now.Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = b.MarkPaid(now)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, b))
		list, err = repo.FindAwaitingPayment(ctx, now.Add(-48*time.Hour), now.Add(time.Minute), 10)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestGormOrderRepository_SaveChecksVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := t.Context()

	require.NoError(t, repo.Create(ctx, placeTestOrder(t, "300100", "11987654321", "42.00", time.Now().UTC())))

	paid, err := repo.FindByID(ctx, "300100")
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, "300100")
	require.NoError(t, err)

	_, err = paid.MarkPaid(time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, paid))
	assert.Equal(t, 2, paid.Version)

	require.NoError(t, stale.ChangeStatus(order.StatusPreparing))
	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 1, stale.Version, "a rejected save leaves the copy's version alone")

	got, err := repo.FindByID(ctx, "300100")
	require.NoError(t, err)
	assert.True(t, got.IsPaid, "the payment survives the stale write")
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, 2, got.Version)

	require.NoError(t, got.ChangeStatus(order.StatusPreparing))
	require.NoError(t, repo.Save(ctx, got))
	got, err = repo.FindByID(ctx, "300100")
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, order.StatusPreparing, got.Status)
	assert.Equal(t, 3, got.Version)

	missing := placeTestOrder(t, "300199", "11987654321", "10.00", time.Now().UTC())
	assert.ErrorIs(t, repo.Save(ctx, missing), shared.ErrNotFound)
}

func TestGormStoreAndCouponRepositories(t *testing.T) {
	db := newTestDB(t)
	stores := NewGormStoreRepository(db)
	coupons := NewGormCouponRepository(db)
	ctx := t.Context()

	for _, id := range []string{"10", "2", "1"} {
		st, err := store.NewStore(id, store.Settings{
			Name: "Loja " + id, OpeningHours: "17:00 às 23:00", PrimaryColor: "#E31B23",
			Gateway: store.GatewayManual, DeliveryFee: decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		require.NoError(t, stores.Save(ctx, st))
	}

	list, err := stores.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"1", "2", "10"}, []string{list[0].ID, list[1].ID, list[2].ID})

	n, err := stores.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	st, err := stores.FindByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "5.00", st.DeliveryFee.StringFixed(2))

	cp, err := coupon.NewCoupon("1", "bemvindo", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, coupons.Save(ctx, cp))

	got, err := coupons.FindByCode(ctx, "1", " BemVindo")
	require.NoError(t, err)
	assert.Equal(t, cp.ID, got.ID)

	exists, err := coupons.ExistsByCode(ctx, "1", "BEMVINDO", &cp.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = coupons.ExistsByCode(ctx, "1", "BEMVINDO", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = coupons.FindByCode(ctx, "2", "BEMVINDO")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
