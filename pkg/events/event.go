package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the interface all domain events must implement.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	AggregateType() string
	OccurredAt() time.Time
}

// BaseEvent carries the envelope shared by every domain event. Its fields are
// exported so embedding events serialise the envelope alongside their payload.
type BaseEvent struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"event_type"`
	Aggregate uuid.UUID `json:"aggregate_id"`
	Kind      string    `json:"aggregate_type"`
	At        time.Time `json:"occurred_at"`
}

// NewBaseEvent creates a BaseEvent with a generated ID stamped at the given time.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Aggregate: aggregateID,
		Kind:      aggregateType,
		At:        at.UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) AggregateID() uuid.UUID { return e.Aggregate }
func (e BaseEvent) AggregateType() string  { return e.Kind }
func (e BaseEvent) OccurredAt() time.Time  { return e.At }
