package realtime

import (
	"context"

	"github.com/japabox/storefront/internal/domain/catalog"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"go.uber.org/zap"
)

// Publisher sends a message to every instance's hub
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// LocalPublisher broadcasts straight to an in-process hub
type LocalPublisher struct {
	hub *Hub
}

// NewLocalPublisher creates a publisher for single-instance deployments
func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

// Publish broadcasts msg
func (p *LocalPublisher) Publish(_ context.Context, msg Message) error {
	p.hub.Broadcast(msg)
	return nil
}

// Projector is an event-bus handler that turns domain events into stream
// messages. Event payloads only carry fields tagged for JSON, so customer
// phone and e-mail never reach a stream.
type Projector struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewProjector creates a projector
func NewProjector(publisher Publisher, logger *zap.Logger) *Projector {
	return &Projector{publisher: publisher, logger: logger}
}

// EventTypes lists the events that reach a stream
func (p *Projector) EventTypes() []string {
	return []string{
		store.EventTypeStoreCreated,
		store.EventTypeStoreUpdated,
		catalog.EventTypeCategoryCreated,
		catalog.EventTypeCategoryUpdated,
		catalog.EventTypeCategoryDeleted,
		catalog.EventTypeProductCreated,
		catalog.EventTypeProductUpdated,
		catalog.EventTypeProductDeleted,
		order.EventTypeOrderPlaced,
		order.EventTypeOrderStatusChanged,
		order.EventTypeOrderPaid,
	}
}

// Handle publishes the event on every channel it belongs to
func (p *Projector) Handle(ctx context.Context, event shared.DomainEvent) error {
	for _, ch := range Channels(event) {
		msg, err := NewMessage(ch, event.EventType(), event.EventID().String(), event)
		if err != nil {
			return err
		}
		if err := p.publisher.Publish(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Channels returns the channels an event is delivered to
func Channels(event shared.DomainEvent) []string {
	switch event.AggregateType() {
	case store.AggregateTypeStore, catalog.AggregateTypeCategory, catalog.AggregateTypeProduct:
		return []string{StoreChannel(event.StoreID())}
	case order.AggregateTypeOrder:
		if event.EventType() == order.EventTypeOrderPlaced {
			return []string{OrdersChannel(event.StoreID())}
		}
		return []string{OrdersChannel(event.StoreID()), OrderChannel(event.AggregateID())}
	default:
		return nil
	}
}

var _ shared.EventHandler = (*Projector)(nil)
