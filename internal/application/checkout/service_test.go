package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	cartapp "github.com/japabox/storefront/internal/application/cart"
	couponapp "github.com/japabox/storefront/internal/application/coupon"
	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/coupon"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/payment"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/cache"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/japabox/storefront/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "asaas" }

func (m *MockGateway) CreateCustomer(ctx context.Context, in payment.CustomerInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreatePayment(ctx context.Context, in payment.PaymentInput) (*payment.Payment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockGateway) GetPixQRCode(ctx context.Context, paymentID string) (*payment.PixQRCode, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PixQRCode), args.Error(1)
}

func (m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

var evening = time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

type checkoutFixture struct {
	svc         *Service
	carts       *cartapp.Service
	gateway     *MockGateway
	stores      *persistence.GormStoreRepository
	orders      *persistence.GormOrderRepository
	idempotency *cache.InMemoryIdempotencyStore
	publisher   *recordingPublisher
	temaki      *catalog.Product
	drink       *catalog.Product
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	f := &checkoutFixture{
		gateway:     new(MockGateway),
		stores:      persistence.NewGormStoreRepository(db.DB),
		orders:      persistence.NewGormOrderRepository(db.DB),
		idempotency: cache.NewInMemoryIdempotencyStore(),
		publisher:   &recordingPublisher{},
	}
	t.Cleanup(func() { _ = f.idempotency.Close() })
	products := persistence.NewGormProductRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)
	coupons := persistence.NewGormCouponRepository(db.DB)

	st, err := store.NewStore("1", store.Settings{
		Name:         "Japan Box Express",
		Address:      "Avenida Prefeito Edne José Piffer, 511",
		OpeningHours: "17:00 às 23:00",
		IsOpen:       true,
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
	require.NoError(t, coupons.Save(ctx, bemvindo))

	resolver := couponapp.NewService(f.stores, coupons)
	quoter := cartapp.NewQuoter(f.stores, products, resolver)
	f.carts = cartapp.NewService(cache.NewInMemoryCartStore(time.Hour), f.stores, quoter, resolver, nil)
	f.svc = NewService(f.stores, f.orders, f.carts, quoter, f.gateway, f.idempotency, f.publisher,
		Config{EmailDomain: "japabox.com.br", IdempotencyTTL: time.Hour}, time.UTC)
	f.svc.SetClock(func() time.Time { return evening })
	f.svc.newID = func() string { return "300123" }
	return f
}

func (f *checkoutFixture) setGateway(t *testing.T, g store.Gateway) {
	t.Helper()
	ctx := context.Background()
	st, err := f.stores.FindByID(ctx, "1")
	require.NoError(t, err)
	st.Gateway = g
	require.NoError(t, f.stores.Save(ctx, st))
}

func (f *checkoutFixture) request(method string) PlaceOrderRequest {
	return PlaceOrderRequest{
		StoreID: "1",
		Customer: CustomerRequest{
			Name:  "Maria Silva",
			CPF:   "123.456.789-09",
			Phone: "(11) 99999-0000",
		},
		Fulfilment: "delivery",
		Address: &AddressRequest{
			City: "Santos", Neighborhood: "Centro", Street: "Rua A", Number: "10",
		},
		PaymentMethod: method,
		Lines: []cart.LineRequest{{
			ProductID:  f.temaki.ID,
			Quantity:   2,
			Selections: []cart.Selection{{OptionID: "sauce", ItemID: "tare", Count: 1}},
		}},
		EventSourceURL: "https://japabox.com.br/checkout",
		UserAgent:      "Mozilla/5.0",
	}
}

func (f *checkoutFixture) expectPixCharge(total string) {
	f.gateway.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(in payment.CustomerInput) bool {
		return in.Email == "11999990000@japabox.com.br" && in.CPF == "12345678909" && in.OrderID == "300123"
	})).Return("cus_1", nil).Once()
	f.gateway.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in payment.PaymentInput) bool {
		return in.CustomerID == "cus_1" &&
			in.BillingType == payment.BillingPix &&
			in.Value.StringFixed(2) == total &&
			in.DueDate.Format("2006-01-02") == "2026-10-20" &&
			in.Description == "Pedido #300123 - Japan Box Express" &&
			in.ExternalReference == "300123"
	})).Return(&payment.Payment{ID: "pay_1", Status: payment.StatusPending}, nil).Once()
	f.gateway.On("GetPixQRCode", mock.Anything, "pay_1").
		Return(&payment.PixQRCode{Payload: "00020126pix", EncodedImage: "iVBORw0KGgo="}, nil).Once()
}

func TestService_PlaceOrderPix(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.expectPixCharge("68.80")

	resp, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
	require.NoError(t, err)
	f.gateway.AssertExpectations(t)

	o := resp.Order
	assert.Equal(t, "300123", o.ID)
	assert.Equal(t, "63.80", o.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", o.DeliveryFee.StringFixed(2))
	assert.Equal(t, "68.80", o.Total.StringFixed(2))
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "Rua A, 10 - Centro - Santos", o.Address.OneLine())
	require.NotNil(t, o.Payment)
	assert.Equal(t, "pay_1", o.Payment.PaymentID)
	assert.Equal(t, "00020126pix", o.Payment.PixPayload)
	assert.NotEmpty(t, o.ArrivalWindow)

	stored, err := f.orders.FindByID(ctx, "300123")
	require.NoError(t, err)
	assert.Equal(t, "12345678909", stored.CustomerCPF)
	assert.Equal(t, "cus_1", stored.GatewayCustomerID)

	require.Len(t, f.publisher.events, 1)
	placed, ok := f.publisher.events[0].(*order.OrderPlacedEvent)
	require.True(t, ok)
	assert.Equal(t, "Mozilla/5.0", placed.Tracking.ClientUserAgent)
}

func TestService_PlaceOrderCardPickup(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_1", nil).Once()
	f.gateway.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in payment.PaymentInput) bool {
		return in.BillingType == payment.BillingCreditCard && in.Value.StringFixed(2) == "63.80"
	})).Return(&payment.Payment{ID: "pay_2", InvoiceURL: "https://sandbox.asaas.com/i/pay_2"}, nil).Once()

	req := f.request("card")
	req.Fulfilment = "pickup"
	req.Address = nil
	resp, err := f.svc.PlaceOrder(ctx, "", req)
	require.NoError(t, err)
	f.gateway.AssertExpectations(t)
	f.gateway.AssertNotCalled(t, "GetPixQRCode", mock.Anything, mock.Anything)

	assert.True(t, resp.Order.DeliveryFee.IsZero())
	assert.Equal(t, "Avenida Prefeito Edne José Piffer, 511", resp.Order.Address.Street)
	assert.Equal(t, "https://sandbox.asaas.com/i/pay_2", resp.Order.Payment.InvoiceURL)
	assert.Empty(t, resp.Order.Payment.PixPayload)
}

func TestService_PlaceOrderIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.expectPixCharge("68.80")

	first, err := f.svc.PlaceOrder(ctx, "key-1", f.request("pix"))
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.PlaceOrder(ctx, "key-1", f.request("pix"))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	f.gateway.AssertNumberOfCalls(t, "CreatePayment", 1)

	reserved, err := f.idempotency.Reserve(ctx, "checkout:1:key-2", pendingMarker, time.Hour)
	require.NoError(t, err)
	require.True(t, reserved)
	_, err = f.svc.PlaceOrder(ctx, "key-2", f.request("pix"))
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
}

// flakyIdempotency fails the first failSets calls to Set
type flakyIdempotency struct {
	*cache.InMemoryIdempotencyStore
	failSets int
	sets     int
}

func (s *flakyIdempotency) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.sets++
	if s.sets <= s.failSets {
		return errors.New("redis: connection reset")
	}
	return s.InMemoryIdempotencyStore.Set(ctx, key, value, ttl)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, ...shared.DomainEvent) error {
	return errors.New("bus closed")
}

func TestService_PlaceOrderIdempotencyWriteFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failure is retried", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.expectPixCharge("68.80")
		idem := &flakyIdempotency{InMemoryIdempotencyStore: f.idempotency, failSets: 2}
		f.svc.idempotency = idem

		first, err := f.svc.PlaceOrder(ctx, "key-1", f.request("pix"))
		require.NoError(t, err)
		assert.Equal(t, 3, idem.sets)

		second, err := f.svc.PlaceOrder(ctx, "key-1", f.request("pix"))
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Order.ID, second.Order.ID)
	})

	t.Run("persistent failure releases the key", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.expectPixCharge("68.80")
		idem := &flakyIdempotency{InMemoryIdempotencyStore: f.idempotency, failSets: maxIdempotencyWrites}
		f.svc.idempotency = idem

		resp, err := f.svc.PlaceOrder(ctx, "key-1", f.request("pix"))
		require.NoError(t, err)
		assert.Equal(t, "300123", resp.Order.ID)
		assert.Equal(t, maxIdempotencyWrites, idem.sets)

		v, err := f.idempotency.Get(ctx, "checkout:1:key-1")
		require.NoError(t, err)
		assert.Empty(t, v)

		_, err = f.orders.FindByID(ctx, "300123")
		assert.NoError(t, err)
	})
}

func TestService_PlaceOrderPublishFailure(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.expectPixCharge("68.80")
	f.svc.eventPublisher = failingPublisher{}

	resp, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
	require.NoError(t, err)
	assert.Equal(t, "300123", resp.Order.ID)

	_, err = f.orders.FindByID(ctx, "300123")
	assert.NoError(t, err)
}

func TestService_PlaceOrderFromCart(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.expectPixCharge("62.42")

	c, err := f.carts.Create(ctx, cartapp.CreateCartRequest{StoreID: "1"})
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, c.Token, cartapp.AddLineRequest{
		ProductID:  f.temaki.ID,
		Quantity:   2,
		Selections: []cart.Selection{{OptionID: "sauce", ItemID: "tare", Count: 1}},
	})
	require.NoError(t, err)
	_, err = f.carts.ApplyCoupon(ctx, c.Token, "BEMVINDO")
	require.NoError(t, err)

	req := f.request("pix")
	req.Lines = nil
	req.CartToken = c.Token
	resp, err := f.svc.PlaceOrder(ctx, "", req)
	require.NoError(t, err)
	assert.Equal(t, "BEMVINDO", resp.Order.CouponCode)
	assert.Equal(t, "6.38", resp.Order.Discount.StringFixed(2))

	_, err = f.carts.Get(ctx, c.Token)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "CART_NOT_FOUND", de.Code, "the cart is discarded once the order exists")
}

func TestService_PlaceOrderValidation(t *testing.T) {
	ctx := context.Background()

	codeOf := func(t *testing.T, err error) string {
		t.Helper()
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		return de.Code
	}

	t.Run("store closed", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.svc.SetClock(func() time.Time { return evening.Add(-8 * time.Hour) })
		_, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
		assert.ErrorIs(t, err, ErrStoreClosed)
	})

	t.Run("below minimum", func(t *testing.T) {
		f := newCheckoutFixture(t)
		req := f.request("pix")
		req.Lines = []cart.LineRequest{{ProductID: f.drink.ID, Quantity: 1}}
		_, err := f.svc.PlaceOrder(ctx, "", req)
		assert.Equal(t, "BELOW_MIN_ORDER", codeOf(t, err))
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newCheckoutFixture(t)
		req := f.request("pix")
		req.Lines = nil
		_, err := f.svc.PlaceOrder(ctx, "", req)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("missing delivery address", func(t *testing.T) {
		f := newCheckoutFixture(t)
		req := f.request("pix")
		req.Address = &AddressRequest{City: "Santos"}
		_, err := f.svc.PlaceOrder(ctx, "", req)
		assert.Equal(t, "INVALID_ADDRESS", codeOf(t, err))
		f.gateway.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("bad cpf", func(t *testing.T) {
		f := newCheckoutFixture(t)
		req := f.request("pix")
		req.Customer.CPF = "123"
		_, err := f.svc.PlaceOrder(ctx, "", req)
		assert.Equal(t, "INVALID_CPF", codeOf(t, err))
	})

	t.Run("mercado pago", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.setGateway(t, store.GatewayMercadoPago)
		_, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
		assert.ErrorIs(t, err, ErrGatewayNotSupported)
	})
}

func TestService_PlaceOrderManualGateway(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.setGateway(t, store.GatewayManual)

	resp, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
	require.NoError(t, err)
	assert.Equal(t, "manual", resp.Order.Payment.Gateway)
	assert.Empty(t, resp.Order.Payment.PixPayload)
	f.gateway.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestService_PlaceOrderGatewayErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthorized", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.gateway.On("CreateCustomer", mock.Anything, mock.Anything).
			Return("", fmt.Errorf("create customer: %w", &payment.RequestError{StatusCode: 401})).Once()

		_, err := f.svc.PlaceOrder(ctx, "key-1", f.request("pix"))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "GATEWAY_UNAUTHORIZED", de.Code)
		assert.Equal(t, "Chave de API do Asaas inválida ou não autorizada", de.Message)

		v, err := f.idempotency.Get(ctx, "checkout:1:key-1")
		require.NoError(t, err)
		assert.Empty(t, v, "a failed checkout releases its key")

		exists, err := f.orders.ExistsByID(ctx, "300123")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("provider message", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_1", nil).Once()
		f.gateway.On("CreatePayment", mock.Anything, mock.Anything).
			Return(nil, &payment.RequestError{StatusCode: 400, Description: "O CPF informado é inválido."}).Once()

		_, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "GATEWAY_ERROR", de.Code)
		assert.Equal(t, "O CPF informado é inválido.", de.Message)
	})
}

func TestService_AllocateIDRetries(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.setGateway(t, store.GatewayManual)

	_, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
	require.NoError(t, err)

	ids := []string{"300123", "300123", "300124"}
	f.svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	resp, err := f.svc.PlaceOrder(ctx, "", f.request("pix"))
	require.NoError(t, err)
	assert.Equal(t, "300124", resp.Order.ID)

	f.svc.newID = func() string { return "300123" }
	_, err = f.svc.PlaceOrder(ctx, "", f.request("pix"))
	assert.ErrorIs(t, err, ErrOrderIDExhausted)
}
