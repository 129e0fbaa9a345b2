package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/japabox/storefront/internal/application/cart"
	catalogapp "github.com/japabox/storefront/internal/application/catalog"
	checkoutapp "github.com/japabox/storefront/internal/application/checkout"
	couponapp "github.com/japabox/storefront/internal/application/coupon"
	orderapp "github.com/japabox/storefront/internal/application/order"
	paymentapp "github.com/japabox/storefront/internal/application/payment"
	storeapp "github.com/japabox/storefront/internal/application/store"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/cache"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/japabox/storefront/internal/infrastructure/persistence"
	"github.com/japabox/storefront/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec-test"

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

type storefrontAPI struct {
	router *gin.Engine
	temaki *catalog.Product
}

func newStorefrontAPI(t *testing.T) *storefrontAPI {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	stores := persistence.NewGormStoreRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	coupons := persistence.NewGormCouponRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	st, err := store.NewStore("1", store.Settings{
		Name:         "Japan Box Express",
		Address:      "Avenida Prefeito Edne José Piffer, 511",
		OpeningHours: "17:00 às 23:00",
		IsOpen:       true,
		DeliveryFee:  decimal.NewFromInt(5),
		MinOrder:     decimal.NewFromInt(30),
		PrimaryColor: "#E31B23",
		Gateway:      store.GatewayManual,
	})
	require.NoError(t, err)
	require.NoError(t, stores.Save(ctx, st))

	cat, err := catalog.NewCategory("1", "Temakis", 1)
	require.NoError(t, err)
	require.NoError(t, categories.Save(ctx, cat))
	temaki, err := catalog.NewProduct("1", catalog.ProductInput{
		CategoryID: cat.ID,
		Name:       "Temaki Salmão",
		Price:      decimal.RequireFromString("29.90"),
		Options: []catalog.OptionGroup{{
			ID: "sauce", Title: "Molho", MinSelection: 1, MaxSelection: 1,
			Items: []catalog.OptionItem{{ID: "tare", Name: "Tarê", Price: decimal.RequireFromString("2.00")}},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, products.Save(ctx, temaki))

	pub := nopPublisher{}
	storeSvc, err := storeapp.NewService(stores, categories, products, coupons, pub, time.UTC, nil)
	require.NoError(t, err)
	productSvc := catalogapp.NewProductService(stores, categories, products, nil, pub, time.UTC)
	categorySvc := catalogapp.NewCategoryService(stores, categories, pub)
	resolver := couponapp.NewService(stores, coupons)
	quoter := cartapp.NewQuoter(stores, products, resolver)
	cartSvc := cartapp.NewService(cache.NewInMemoryCartStore(time.Hour), stores, quoter, resolver, nil)
	orderSvc := orderapp.NewService(orders, stores, nil, pub, time.UTC, nil)
	paymentSvc := paymentapp.NewService(orders, nil, idempotency, pub,
		paymentapp.Config{WebhookToken: webhookSecret, DedupeTTL: time.Hour}, time.UTC)
	checkoutSvc := checkoutapp.NewService(stores, orders, cartSvc, quoter, nil, idempotency, pub,
		checkoutapp.Config{EmailDomain: "japabox.com.br", IdempotencyTTL: time.Hour}, time.UTC)
	checkoutSvc.SetClock(func() time.Time { return time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC) })

	storeH := NewStoreHandler(storeSvc)
	catalogH := NewCatalogHandler(categorySvc, productSvc)
	cartH := NewCartHandler(cartSvc)
	checkoutH := NewCheckoutHandler(checkoutSvc)
	orderH := NewOrderHandler(orderSvc, paymentSvc)
	webhookH := NewWebhookHandler(paymentSvc)

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.GET("/stores/:id", storeH.GetStore)
	api.GET("/stores/:id/menu", catalogH.GetMenu)
	api.POST("/carts", cartH.CreateCart)
	api.POST("/carts/:token/lines", cartH.AddLine)
	api.GET("/carts/:token/quote", cartH.QuoteCart)
	api.POST("/checkout", checkoutH.PlaceOrder)
	api.GET("/orders", orderH.ListByPhone)
	api.GET("/orders/:id", orderH.GetOrder)
	api.POST("/webhooks/asaas", webhookH.AsaasWebhook)
	admin := api.Group("/admin/stores/:id")
	admin.GET("/orders", orderH.AdminListOrders)
	admin.PATCH("/orders/:orderId/status", orderH.UpdateStatus)
	admin.GET("/orders/:orderId/ticket", orderH.KitchenTicket)

	return &storefrontAPI{router: r, temaki: temaki}
}

func (a *storefrontAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *storefrontAPI) orderBody() map[string]any {
	return map[string]any{
		"storeId":       "1",
		"customer":      map[string]any{"name": "Maria Silva", "cpf": "123.456.789-09", "phone": "(11) 99999-0000"},
		"fulfilment":    "pickup",
		"paymentMethod": "pix",
		"lines": []map[string]any{{
			"productId":  a.temaki.ID.String(),
			"quantity":   2,
			"selections": []map[string]any{{"optionId": "sauce", "itemId": "tare", "count": 1}},
		}},
	}
}

func (a *storefrontAPI) placeOrder(t *testing.T) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/checkout", a.orderBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeResponse(t, w).Data.(map[string]any)
	return data["order"].(map[string]any)["id"].(string)
}

func amount(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "amount should be a JSON string, got %T", v)
	return decimal.RequireFromString(s)
}

func TestStorefront_Menu(t *testing.T) {
	api := newStorefrontAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/stores/1/menu", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeResponse(t, w).Data.(map[string]any)
	cats := data["categories"].([]any)
	require.Len(t, cats, 1)

	w = api.do(t, http.MethodGet, "/api/v1/stores/42/menu", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStorefront_CartQuote(t *testing.T) {
	api := newStorefrontAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/carts", map[string]any{"storeId": "1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decodeResponse(t, w).Data.(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	line := api.orderBody()["lines"].([]map[string]any)[0]
	w = api.do(t, http.MethodPost, "/api/v1/carts/"+token+"/lines", line, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/carts/"+token+"/quote?fulfilment=delivery", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	totals := decodeResponse(t, w).Data.(map[string]any)["totals"].(map[string]any)
	assert.True(t, amount(t, totals["subtotal"]).Equal(decimal.RequireFromString("63.80")))
	assert.True(t, amount(t, totals["total"]).Equal(decimal.RequireFromString("68.80")))

	w = api.do(t, http.MethodPost, "/api/v1/carts/missing/lines", line, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStorefront_Checkout(t *testing.T) {
	api := newStorefrontAPI(t)
	key := map[string]string{middleware.IdempotencyKeyHeader: "a1b2c3"}

	w := api.do(t, http.MethodPost, "/api/v1/checkout", api.orderBody(), key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, false, first["replayed"])
	placed := first["order"].(map[string]any)
	assert.Equal(t, "pending", placed["status"])
	assert.True(t, amount(t, placed["total"]).Equal(decimal.RequireFromString("63.80")))

	t.Run("same key replays the first order", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/checkout", api.orderBody(), key)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		again := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, true, again["replayed"])
		assert.Equal(t, placed["id"], again["order"].(map[string]any)["id"])
	})

	t.Run("invalid payment method", func(t *testing.T) {
		body := api.orderBody()
		body["paymentMethod"] = "boleto"
		w := api.do(t, http.MethodPost, "/api/v1/checkout", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, w).Error.Code)
	})

	t.Run("card fields are never part of the request", func(t *testing.T) {
		body := api.orderBody()
		body["paymentMethod"] = "card"
		body["cardNumber"] = "4111111111111111"
		w := api.do(t, http.MethodPost, "/api/v1/checkout", body, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.NotContains(t, w.Body.String(), "4111111111111111")
	})
}

func TestStorefront_OrderTracking(t *testing.T) {
	api := newStorefrontAPI(t)
	id := api.placeOrder(t)

	w := api.do(t, http.MethodGet, "/api/v1/orders/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, id, decodeResponse(t, w).Data.(map[string]any)["id"])

	w = api.do(t, http.MethodGet, "/api/v1/orders?phone=11999990000&storeId=1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeResponse(t, w).Data.([]any), 1)

	w = api.do(t, http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/orders/999999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStorefront_AdminOrders(t *testing.T) {
	api := newStorefrontAPI(t)
	id := api.placeOrder(t)

	w := api.do(t, http.MethodPatch, "/api/v1/admin/stores/1/orders/"+id+"/status", map[string]any{"status": "preparing"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "preparing", decodeResponse(t, w).Data.(map[string]any)["status"])

	w = api.do(t, http.MethodPatch, "/api/v1/admin/stores/2/orders/"+id+"/status", map[string]any{"status": "delivering"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/admin/stores/1/orders?page=1&page_size=10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.PageSize)

	w = api.do(t, http.MethodGet, "/api/v1/admin/stores/1/orders/"+id+"/ticket", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "PRINTING_DISABLED", decodeResponse(t, w).Error.Code)
}

func TestStorefront_AsaasWebhook(t *testing.T) {
	api := newStorefrontAPI(t)
	id := api.placeOrder(t)
	token := map[string]string{AsaasTokenHeader: webhookSecret}
	event := map[string]any{
		"id":      "evt_1",
		"event":   "PAYMENT_RECEIVED",
		"payment": map[string]any{"id": "pay_1", "status": "RECEIVED", "externalReference": id},
	}

	w := api.do(t, http.MethodPost, "/api/v1/webhooks/asaas", event, map[string]string{AsaasTokenHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/webhooks/asaas", "{not json", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/webhooks/asaas", event, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "paid", decodeResponse(t, w).Data.(map[string]any)["outcome"])

	w = api.do(t, http.MethodPost, "/api/v1/webhooks/asaas", event, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", decodeResponse(t, w).Data.(map[string]any)["outcome"])

	w = api.do(t, http.MethodGet, "/api/v1/orders/"+id, nil, nil)
	assert.Equal(t, true, decodeResponse(t, w).Data.(map[string]any)["isPaid"])
}
