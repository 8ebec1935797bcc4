// Package events holds the event envelope shared by the write path and the
// projection path, and the per-unit-of-work buffer that collects them.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Event wraps a DomainEvent with its stream metadata. Within a unit of work
// events are compared by pointer, never by value.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	// Sequence is the stream-relative position assigned by the origin stream.
	Sequence   int64
	Type       string
	OccurredAt time.Time
	Payload    DomainEvent
}

// New wraps payload for the given aggregate type at stream position seq.
func New(aggregateType string, seq int64, payload DomainEvent) *Event {
	return &Event{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   payload.AggregateID(),
		Sequence:      seq,
		Type:          payload.EventType(),
		OccurredAt:    payload.OccurredAt().UTC(),
		Payload:       payload,
	}
}
