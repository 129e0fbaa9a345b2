// Package payment reconciles orders with the payment gateway: webhook
// notifications pushed by the provider and on-demand status syncs.
package payment

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	orderapp "github.com/japabox/storefront/internal/application/order"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/payment"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const webhookKeyPrefix = "webhook:asaas:"

// maxSaveAttempts bounds the reload-and-retry loop on version conflicts
const maxSaveAttempts = 3

var (
	ErrInvalidWebhookToken  = shared.NewDomainError(shared.ErrUnauthorized.Code, "Invalid webhook token")
	ErrNoGatewayPayment     = shared.NewDomainError("NO_GATEWAY_PAYMENT", "Order has no gateway payment")
	ErrGatewayNotConfigured = shared.NewDomainError("GATEWAY_NOT_CONFIGURED", "Gateway de pagamento não configurado")
)

// WebhookOutcome tells what a webhook delivery did
type WebhookOutcome string

const (
	OutcomePaid      WebhookOutcome = "paid"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
)

// WebhookResult is the answer to a webhook delivery
type WebhookResult struct {
	Outcome WebhookOutcome `json:"outcome"`
	OrderID string         `json:"orderId,omitempty"`
}

// SyncResult is an order after its payment status was fetched
type SyncResult struct {
	PaymentStatus payment.Status         `json:"paymentStatus"`
	Order         orderapp.OrderResponse `json:"order"`
}

// Config holds reconciliation settings
type Config struct {
	// WebhookToken must match the asaas-access-token header; empty disables the check
	WebhookToken string
	DedupeTTL    time.Duration
}

// Service reconciles payments
type Service struct {
	orderRepo      order.OrderRepository
	gateway        payment.Gateway
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	cfg            Config
	loc            *time.Location
	now            func() time.Time
}

// NewService creates a new payment Service
func NewService(
	orderRepo order.OrderRepository,
	gateway payment.Gateway,
	idempotency shared.IdempotencyStore,
	eventPublisher shared.EventPublisher,
	cfg Config,
	loc *time.Location,
) *Service {
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 72 * time.Hour
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orderRepo:      orderRepo,
		gateway:        gateway,
		idempotency:    idempotency,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		loc:            loc,
		now:            time.Now,
	}
}

// VerifyWebhookToken checks the token sent by the gateway
func (s *Service) VerifyWebhookToken(token string) error {
	if s.cfg.WebhookToken == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.WebhookToken)) != 1 {
		return ErrInvalidWebhookToken
	}
	return nil
}

// HandleWebhook applies a payment notification. Deliveries are deduplicated
// by event ID; only payment-confirmed events change an order.
func (s *Service) HandleWebhook(ctx context.Context, token string, ev *payment.WebhookEvent) (*WebhookResult, error) {
	if err := s.VerifyWebhookToken(token); err != nil {
		return nil, err
	}

	key := webhookKeyPrefix + ev.ID
	if ev.ID != "" && s.idempotency != nil {
		reserved, err := s.idempotency.Reserve(ctx, key, ev.Event, s.cfg.DedupeTTL)
		if err != nil {
			return nil, err
		}
		if !reserved {
			logger.L(ctx).Debug("Duplicate webhook delivery", zap.String("event_id", ev.ID))
			return &WebhookResult{Outcome: OutcomeDuplicate}, nil
		}
	}

	result, err := s.applyWebhook(ctx, ev)
	if err != nil && ev.ID != "" && s.idempotency != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			logger.L(ctx).Warn("Failed to release webhook key", zap.String("event_id", ev.ID), zap.Error(relErr))
		}
	}
	return result, err
}

func (s *Service) applyWebhook(ctx context.Context, ev *payment.WebhookEvent) (*WebhookResult, error) {
	if !payment.IsPaidEvent(ev.Event) {
		return &WebhookResult{Outcome: OutcomeIgnored}, nil
	}
	o, err := s.findOrder(ctx, ev)
	if errors.Is(err, shared.ErrNotFound) {
		logger.L(ctx).Warn("Webhook for unknown order",
			zap.String("external_reference", ev.ExternalReference),
			zap.String("payment_id", ev.PaymentID),
		)
		return &WebhookResult{Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		return nil, err
	}

	changed, err := s.markPaid(ctx, o)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			return &WebhookResult{Outcome: OutcomeIgnored, OrderID: o.ID}, nil
		}
		return nil, err
	}
	if !changed {
		return &WebhookResult{Outcome: OutcomeDuplicate, OrderID: o.ID}, nil
	}
	logger.L(ctx).Info("Order paid", zap.String("order_id", o.ID), zap.String("event", ev.Event))
	return &WebhookResult{Outcome: OutcomePaid, OrderID: o.ID}, nil
}

// findOrder looks the order up by externalReference and falls back to the
// gateway payment ID
func (s *Service) findOrder(ctx context.Context, ev *payment.WebhookEvent) (*order.Order, error) {
	if ev.ExternalReference != "" {
		o, err := s.orderRepo.FindByID(ctx, ev.ExternalReference)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return o, err
		}
	}
	if ev.PaymentID == "" {
		return nil, shared.ErrNotFound
	}
	return s.orderRepo.FindByGatewayPaymentID(ctx, ev.PaymentID)
}

// SyncPayment asks the gateway for the payment status of a store's order and
// marks the order paid when the gateway says so
func (s *Service) SyncPayment(ctx context.Context, storeID, orderID string) (*SyncResult, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StoreID != storeID {
		return nil, shared.ErrNotFound
	}
	if o.GatewayPaymentID == "" {
		return nil, ErrNoGatewayPayment
	}

	p, err := s.gateway.GetPayment(ctx, o.GatewayPaymentID)
	if err != nil {
		return nil, shared.WrapDomainError("GATEWAY_ERROR", "Erro ao consultar pagamento", err)
	}
	if p.Status == payment.StatusPaid {
		if _, err := s.markPaid(ctx, o); err != nil {
			return nil, err
		}
	}
	return &SyncResult{PaymentStatus: p.Status, Order: orderapp.ToOrderResponse(o, s.loc)}, nil
}

// ReconcileReport summarises one reconciliation pass
type ReconcileReport struct {
	Checked int
	Paid    int
	Failed  int
}

// ReconcilePending asks the gateway about unpaid orders created between
// maxAge and minAge ago and marks the paid ones. It picks up payments whose
// webhook never arrived.
func (s *Service) ReconcilePending(ctx context.Context, minAge, maxAge time.Duration, limit int) (ReconcileReport, error) {
	var report ReconcileReport
	if s.gateway == nil {
		return report, ErrGatewayNotConfigured
	}
	now := s.now()
	orders, err := s.orderRepo.FindAwaitingPayment(ctx, now.Add(-maxAge), now.Add(-minAge), limit)
	if err != nil {
		return report, err
	}

	log := logger.L(ctx)
	for i := range orders {
		o := &orders[i]
		report.Checked++
		p, err := s.gateway.GetPayment(ctx, o.GatewayPaymentID)
		if err != nil {
			report.Failed++
			log.Warn("Payment lookup failed", zap.String("order_id", o.ID), zap.Error(err))
			continue
		}
		if p.Status != payment.StatusPaid {
			continue
		}
		changed, err := s.markPaid(ctx, o)
		if err != nil {
			report.Failed++
			log.Warn("Failed to mark order paid", zap.String("order_id", o.ID), zap.Error(err))
			continue
		}
		if changed {
			report.Paid++
			log.Info("Payment reconciled", zap.String("order_id", o.ID), zap.String("payment_id", o.GatewayPaymentID))
		}
	}
	return report, nil
}

// markPaid marks o paid and saves it. On a version conflict the order is
// reloaded into o and marked again, so a concurrent webhook and reconciler
// pass publish OrderPaid once between them.
func (s *Service) markPaid(ctx context.Context, o *order.Order) (bool, error) {
	for attempt := 1; ; attempt++ {
		changed, err := o.MarkPaid(s.now())
		if err != nil || !changed {
			return changed, err
		}
		err = s.orderRepo.Save(ctx, o)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt == maxSaveAttempts {
			return false, err
		}
		fresh, err := s.orderRepo.FindByID(ctx, o.ID)
		if err != nil {
			return false, err
		}
		*o = *fresh
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, o.GetDomainEvents()...); err != nil {
			logger.L(ctx).Warn("Failed to publish payment events", zap.String("order_id", o.ID), zap.Error(err))
		}
		o.ClearDomainEvents()
	}
	return true, nil
}
