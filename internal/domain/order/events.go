package order

import "github.com/japabox/storefront/internal/domain/shared"

// AggregateTypeOrder is the aggregate type of order events
const AggregateTypeOrder = "Order"

const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderPaid          = "OrderPaid"
)

// Tracking carries browser context for the Conversions API; it is not stored
type Tracking struct {
	EventSourceURL  string `json:"-"`
	ClientUserAgent string `json:"-"`
}

// OrderPlacedEvent is published once an order is persisted
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID       string   `json:"order_id"`
	Status        Status   `json:"status"`
	Total         string   `json:"total"`
	PaymentMethod string   `json:"payment_method"`
	CustomerName  string   `json:"customer_name"`
	ItemNames     []string `json:"item_names"`
	Phone         string   `json:"-"`
	Email         string   `json:"-"`
	Tracking      Tracking `json:"-"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order, t Tracking) *OrderPlacedEvent {
	names := make([]string, 0, len(o.Items))
	for _, l := range o.Items {
		names = append(names, l.Name)
	}
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID, o.StoreID),
		OrderID:         o.ID,
		Status:          o.Status,
		Total:           o.Total.StringFixed(2),
		PaymentMethod:   string(o.PaymentMethod),
		CustomerName:    o.CustomerName,
		ItemNames:       names,
		Phone:           o.CustomerPhone,
		Email:           o.CustomerEmail,
		Tracking:        t,
	}
}

// OrderStatusChangedEvent is published on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID   string `json:"order_id"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
	Reason    string `json:"reason,omitempty"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, old Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.StoreID),
		OrderID:         o.ID,
		OldStatus:       old,
		NewStatus:       o.Status,
	}
}

// OrderPaidEvent is published when payment is confirmed
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
	IsPaid  bool   `json:"is_paid"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID, o.StoreID),
		OrderID:         o.ID,
		Total:           o.Total.StringFixed(2),
		IsPaid:          o.IsPaid,
	}
}
