package shared

// AggregateRoot is implemented by entities that record domain events
type AggregateRoot interface {
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// EventRecorder carries the version and pending events of an aggregate. It is
// embedded by aggregates whose identity is not a UUID (stores, orders).
type EventRecorder struct {
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *EventRecorder) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *EventRecorder) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *EventRecorder) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *EventRecorder) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *EventRecorder) ClearDomainEvents() {
	a.domainEvents = nil
}

// BaseAggregateRoot is a UUID-keyed entity that records domain events
type BaseAggregateRoot struct {
	BaseEntity
	EventRecorder
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:    NewBaseEntity(),
		EventRecorder: EventRecorder{Version: 1},
	}
}
