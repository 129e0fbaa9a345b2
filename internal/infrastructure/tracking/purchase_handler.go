package tracking

import (
	"context"
	"strings"

	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Tracker is the part of Client the handler needs
type Tracker interface {
	Track(ctx context.Context, st *store.Store, ev Event)
}

// PurchaseHandler sends a Purchase event for every placed order. It runs off
// the request path.
type PurchaseHandler struct {
	stores  store.StoreRepository
	tracker Tracker
	logger  *zap.Logger
}

// NewPurchaseHandler creates a PurchaseHandler
func NewPurchaseHandler(stores store.StoreRepository, tracker Tracker, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{stores: stores, tracker: tracker, logger: logger}
}

// EventTypes returns the handled event types
func (h *PurchaseHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced}
}

// Async marks the handler for background dispatch
func (h *PurchaseHandler) Async() bool {
	return true
}

// Handle sends the conversion
func (h *PurchaseHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*order.OrderPlacedEvent)
	if !ok {
		return nil
	}
	st, err := h.stores.FindByID(ctx, placed.StoreID())
	if err != nil {
		return err
	}
	if !st.HasTracking() {
		return nil
	}

	value, err := decimal.NewFromString(placed.Total)
	if err != nil {
		h.logger.Warn("Order total is not a number", zap.String("order_id", placed.OrderID), zap.String("total", placed.Total))
		value = decimal.Zero
	}
	h.tracker.Track(ctx, st, Event{
		Name:        EventPurchase,
		Time:        placed.OccurredAt(),
		SourceURL:   placed.Tracking.EventSourceURL,
		UserAgent:   placed.Tracking.ClientUserAgent,
		Email:       placed.Email,
		Phone:       placed.Phone,
		Value:       value,
		ContentName: strings.Join(placed.ItemNames, ", "),
	})
	return nil
}
