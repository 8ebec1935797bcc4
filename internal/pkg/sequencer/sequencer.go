// Package sequencer delivers asynchronous projection events in stream order.
//
// Every aggregate stream maps to one queue. A queue remembers the last
// sequence it delivered; older events are dropped as redeliveries and newer
// ones wait until the gap in front of them closes.
package sequencer

import "github.com/murkotick/product-projections/internal/pkg/events"

// DefaultPrefix is prepended to the aggregate id to form a queue name.
const DefaultPrefix = "ProjectionEventSequencer:"

// Sequencer maps events to their ordering queue.
type Sequencer struct {
	prefix string
	sync   func(*events.Event) bool
}

type SequencerOption func(*Sequencer)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) SequencerOption {
	return func(s *Sequencer) {
		s.prefix = prefix
	}
}

// WithSyncPolicy overrides the default policy under which every event is
// dispatched through its queue.
func WithSyncPolicy(fn func(*events.Event) bool) SequencerOption {
	return func(s *Sequencer) {
		if fn != nil {
			s.sync = fn
		}
	}
}

func NewSequencer(opts ...SequencerOption) Sequencer {
	s := Sequencer{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Queue returns the queue name of an aggregate stream.
func (s Sequencer) Queue(aggregateID string) string {
	return s.prefix + aggregateID
}

// Sequence returns the queue and stream position of evt. The position is the
// one assigned by the origin stream.
func (s Sequencer) Sequence(evt *events.Event) (string, int64) {
	return s.Queue(evt.AggregateID), evt.Sequence
}

// ShouldDispatchSynchronously reports whether evt goes through its queue.
func (s Sequencer) ShouldDispatchSynchronously(evt *events.Event) bool {
	if s.sync == nil {
		return true
	}
	return s.sync(evt)
}
