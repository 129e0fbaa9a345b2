// Package realtime fans domain events out to server-sent-event subscribers.
//
// Channels are named by scope:
//
//	store:{id}       configuration and catalog changes (storefront)
//	orders:{storeId} new orders and order updates (back-office)
//	order:{id}       status and payment updates of one order (customer)
package realtime

import (
	"encoding/json"
	"fmt"
)

// Message is one event delivered to the subscribers of a channel
type Message struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	ID      string          `json:"id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// StoreChannel is the storefront channel of a store
func StoreChannel(storeID string) string {
	return "store:" + storeID
}

// OrdersChannel is the back-office order feed of a store
func OrdersChannel(storeID string) string {
	return "orders:" + storeID
}

// OrderChannel is the customer channel of one order
func OrderChannel(orderID string) string {
	return "order:" + orderID
}

// NewMessage marshals data into a message
func NewMessage(channel, event, id string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s message: %w", event, err)
	}
	return Message{Channel: channel, Event: event, ID: id, Data: raw}, nil
}
