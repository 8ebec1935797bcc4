package eventlog

import (
	"time"

	"github.com/murkotick/product-projections/internal/pkg/events"
)

// Record is one row of the events table.
type Record struct {
	AggregateID   string
	Sequence      int64
	EventID       string
	AggregateType string
	EventType     string
	Payload       []byte
	OccurredAt    time.Time
	Status        string
}

// Event decodes the record back into an envelope.
func (r Record) Event(codec *events.Registry) (*events.Event, error) {
	payload, err := codec.Decode(r.EventType, r.Payload)
	if err != nil {
		return nil, err
	}
	return &events.Event{
		ID:            r.EventID,
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		Sequence:      r.Sequence,
		Type:          r.EventType,
		OccurredAt:    r.OccurredAt.UTC(),
		Payload:       payload,
	}, nil
}
