package checkout

import (
	"context"
	"errors"
	"time"

	cartapp "github.com/japabox/storefront/internal/application/cart"
	orderapp "github.com/japabox/storefront/internal/application/order"
	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/payment"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/shared/valueobject"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	maxIDAttempts        = 5
	maxIdempotencyWrites = 3
	pendingMarker        = "pending"
	idempotencyPfx       = "checkout:"
)

// Checkout errors
var (
	ErrStoreClosed          = shared.NewDomainError("STORE_CLOSED", "A loja está fechada no momento")
	ErrEmptyCart            = shared.NewDomainError("EMPTY_CART", "Seu carrinho está vazio")
	ErrGatewayNotSupported  = shared.NewDomainError("GATEWAY_NOT_SUPPORTED", "Gateway de pagamento não suportado")
	ErrGatewayNotConfigured = shared.NewDomainError("GATEWAY_NOT_CONFIGURED", "Gateway de pagamento não configurado")
	ErrCheckoutInProgress   = shared.NewDomainError("CHECKOUT_IN_PROGRESS", "Pedido já está sendo processado")
	ErrOrderIDExhausted     = shared.NewDomainError("ORDER_ID_UNAVAILABLE", "Could not allocate an order ID")
)

// CartLoader reads and discards stored carts
type CartLoader interface {
	Load(ctx context.Context, token string) (*cart.Cart, error)
	Discard(ctx context.Context, token string) error
}

// Config holds checkout settings
type Config struct {
	// EmailDomain builds the gateway e-mail of customers who gave none
	EmailDomain    string
	IdempotencyTTL time.Duration
}

// Service places orders and charges them through the store's gateway
type Service struct {
	storeRepo      store.StoreRepository
	orderRepo      order.OrderRepository
	carts          CartLoader
	quoter         *cartapp.Quoter
	gateway        payment.Gateway
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	cfg            Config
	loc            *time.Location
	now            func() time.Time
	newID          func() string
}

// NewService creates a new checkout Service. A nil gateway makes asaas
// stores fail with GATEWAY_NOT_CONFIGURED.
func NewService(
	storeRepo store.StoreRepository,
	orderRepo order.OrderRepository,
	carts CartLoader,
	quoter *cartapp.Quoter,
	gateway payment.Gateway,
	idempotency shared.IdempotencyStore,
	eventPublisher shared.EventPublisher,
	cfg Config,
	loc *time.Location,
) *Service {
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = "japabox.com.br"
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		storeRepo:      storeRepo,
		orderRepo:      orderRepo,
		carts:          carts,
		quoter:         quoter,
		gateway:        gateway,
		idempotency:    idempotency,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		loc:            loc,
		now:            time.Now,
		newID:          order.NewID,
	}
}

// SetClock overrides time.Now
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// PlaceOrder validates and prices the order, charges it and persists it.
// With an idempotency key, a retry returns the order of the first request
// without calling the gateway again.
func (s *Service) PlaceOrder(ctx context.Context, idempotencyKey string, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	if idempotencyKey == "" || s.idempotency == nil {
		o, err := s.place(ctx, req)
		if err != nil {
			return nil, err
		}
		return &PlaceOrderResponse{Order: orderapp.ToOrderResponse(o, s.loc)}, nil
	}

	key := idempotencyPfx + req.StoreID + ":" + idempotencyKey
	reserved, err := s.idempotency.Reserve(ctx, key, pendingMarker, s.cfg.IdempotencyTTL)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return s.replay(ctx, key)
	}

	o, err := s.place(ctx, req)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			logger.L(ctx).Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return nil, err
	}
	s.recordIdempotentResult(ctx, key, o.ID)
	return &PlaceOrderResponse{Order: orderapp.ToOrderResponse(o, s.loc)}, nil
}

// recordIdempotentResult points key at the placed order. When that keeps
// failing the key is released so retries are not stuck on the pending marker.
func (s *Service) recordIdempotentResult(ctx context.Context, key, orderID string) {
	var err error
	for attempt := 1; attempt <= maxIdempotencyWrites; attempt++ {
		if err = s.idempotency.Set(ctx, key, orderID, s.cfg.IdempotencyTTL); err == nil {
			return
		}
		logger.L(ctx).Debug("Idempotency write failed",
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	logger.L(ctx).Warn("Failed to store idempotency result",
		zap.String("key", key),
		zap.String("order_id", orderID),
		zap.Error(err),
	)
	if relErr := s.idempotency.Release(ctx, key); relErr != nil {
		logger.L(ctx).Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
	}
}

func (s *Service) replay(ctx context.Context, key string) (*PlaceOrderResponse, error) {
	id, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if id == "" || id == pendingMarker {
		return nil, ErrCheckoutInProgress
	}
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PlaceOrderResponse{Order: orderapp.ToOrderResponse(o, s.loc), Replayed: true}, nil
}

func (s *Service) place(ctx context.Context, req PlaceOrderRequest) (*order.Order, error) {
	st, err := s.storeRepo.FindByID(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	if !st.IsOpenAt(s.now(), s.loc) {
		return nil, ErrStoreClosed
	}
	if st.Gateway == store.GatewayMercadoPago {
		return nil, ErrGatewayNotSupported
	}
	if st.Gateway == store.GatewayAsaas && s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	lines, couponCode, err := s.lineRequests(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	q, err := s.quoter.Quote(ctx, cartapp.QuoteInput{
		StoreID:    st.ID,
		Lines:      lines,
		CouponCode: couponCode,
		Fulfilment: cart.Fulfilment(req.Fulfilment),
		Upsell:     req.Upsell,
	})
	if err != nil {
		return nil, err
	}
	if q.Totals.Subtotal.LessThan(st.MinOrder) {
		return nil, shared.NewDomainError("BELOW_MIN_ORDER",
			"O pedido mínimo é de "+valueobject.FormatBRL(st.MinOrder))
	}

	id, err := s.allocateID(ctx)
	if err != nil {
		return nil, err
	}
	o, err := order.Place(order.Draft{
		ID:            id,
		StoreID:       st.ID,
		Customer:      req.customer(),
		Lines:         q.Lines,
		Totals:        q.Totals,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		Address:       req.address(st.Address),
		Gateway:       string(st.Gateway),
	})
	if err != nil {
		return nil, err
	}

	if st.Gateway == store.GatewayAsaas {
		if err := s.charge(ctx, st, o); err != nil {
			return nil, err
		}
	}

	o.RecordPlaced(order.Tracking{EventSourceURL: req.EventSourceURL, ClientUserAgent: req.UserAgent})
	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, o)

	if req.CartToken != "" && s.carts != nil {
		if err := s.carts.Discard(ctx, req.CartToken); err != nil {
			logger.L(ctx).Warn("Failed to discard cart", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	logger.L(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("store_id", o.StoreID),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("total", o.Total.StringFixed(2)),
	)
	return o, nil
}

// lineRequests returns the lines to price. A cart token wins over explicit
// lines and its coupon is used when the request names none.
func (s *Service) lineRequests(ctx context.Context, req PlaceOrderRequest) ([]cart.LineRequest, string, error) {
	if req.CartToken == "" || s.carts == nil {
		return req.Lines, req.CouponCode, nil
	}
	c, err := s.carts.Load(ctx, req.CartToken)
	if err != nil {
		return nil, "", err
	}
	if c.StoreID != req.StoreID {
		return nil, "", shared.NewDomainError("CART_STORE_MISMATCH", "O carrinho pertence a outra loja")
	}
	code := req.CouponCode
	if code == "" {
		code = c.CouponCode
	}
	return cartapp.Requests(c), code, nil
}

func (s *Service) allocateID(ctx context.Context) (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		taken, err := s.orderRepo.ExistsByID(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrOrderIDExhausted
}

// charge registers the customer and creates the payment. PIX orders also get
// the QR code; card orders pay on the gateway's hosted invoice page.
func (s *Service) charge(ctx context.Context, st *store.Store, o *order.Order) error {
	email := o.CustomerEmail
	if email == "" {
		email = o.CustomerPhone + "@" + s.cfg.EmailDomain
	}
	customerID, err := s.gateway.CreateCustomer(ctx, payment.CustomerInput{
		Name:    o.CustomerName,
		CPF:     o.CustomerCPF,
		Email:   email,
		Phone:   o.CustomerPhone,
		OrderID: o.ID,
	})
	if err != nil {
		return s.gatewayError(ctx, o, err)
	}

	billing := payment.BillingPix
	if o.PaymentMethod == order.PaymentCard {
		billing = payment.BillingCreditCard
	}
	p, err := s.gateway.CreatePayment(ctx, payment.PaymentInput{
		CustomerID:        customerID,
		BillingType:       billing,
		Value:             o.Total,
		DueDate:           s.now().In(s.loc).AddDate(0, 0, 1),
		Description:       "Pedido #" + o.ID + " - " + st.Name,
		ExternalReference: o.ID,
	})
	if err != nil {
		return s.gatewayError(ctx, o, err)
	}

	attached := order.Payment{
		Gateway:           s.gateway.Name(),
		GatewayCustomerID: customerID,
		GatewayPaymentID:  p.ID,
		InvoiceURL:        p.InvoiceURL,
	}
	if billing == payment.BillingPix {
		qr, err := s.gateway.GetPixQRCode(ctx, p.ID)
		if err != nil {
			return s.gatewayError(ctx, o, err)
		}
		attached.PixPayload = qr.Payload
		attached.PixQRCodeImage = qr.EncodedImage
	}
	o.AttachPayment(attached)
	return nil
}

// gatewayError turns a gateway failure into the message shown to the customer
func (s *Service) gatewayError(ctx context.Context, o *order.Order, err error) error {
	logger.L(ctx).Error("Payment gateway call failed", zap.String("order_id", o.ID), zap.Error(err))
	if errors.Is(err, payment.ErrGatewayUnauthorized) {
		return shared.WrapDomainError("GATEWAY_UNAUTHORIZED", "Chave de API do Asaas inválida ou não autorizada", err)
	}
	var reqErr *payment.RequestError
	if errors.As(err, &reqErr) && reqErr.Description != "" {
		return shared.WrapDomainError("GATEWAY_ERROR", reqErr.Description, err)
	}
	if errors.Is(err, payment.ErrGatewayUnavailable) {
		return shared.WrapDomainError("GATEWAY_UNAVAILABLE", "Gateway de pagamento indisponível, tente novamente", err)
	}
	return shared.WrapDomainError("GATEWAY_ERROR", "Erro ao processar pagamento", err)
}

func (s *Service) publishDomainEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish checkout events",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
	o.ClearDomainEvents()
}
