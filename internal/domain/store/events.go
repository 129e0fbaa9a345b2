package store

import "github.com/japabox/storefront/internal/domain/shared"

// AggregateTypeStore is the aggregate type of store events
const AggregateTypeStore = "Store"

const (
	EventTypeStoreCreated = "StoreCreated"
	EventTypeStoreUpdated = "StoreUpdated"
)

// StoreCreatedEvent is published when a store is created
type StoreCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewStoreCreatedEvent creates a new StoreCreatedEvent
func NewStoreCreatedEvent(st *Store) *StoreCreatedEvent {
	return &StoreCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStoreCreated, AggregateTypeStore, st.ID, st.ID),
		Name:            st.Name,
	}
}

// StoreUpdatedEvent is published whenever the configuration changes
type StoreUpdatedEvent struct {
	shared.BaseDomainEvent
	Name   string `json:"name"`
	IsOpen bool   `json:"is_open"`
}

// NewStoreUpdatedEvent creates a new StoreUpdatedEvent
func NewStoreUpdatedEvent(st *Store) *StoreUpdatedEvent {
	return &StoreUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStoreUpdated, AggregateTypeStore, st.ID, st.ID),
		Name:            st.Name,
		IsOpen:          st.IsOpen,
	}
}
