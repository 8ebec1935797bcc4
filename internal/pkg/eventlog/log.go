// Package eventlog persists the events of a unit of work next to its other
// writes and relays them to the message bus once they are durable.
package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/murkotick/product-projections/internal/models/m_event"
	"github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/transaction"
)

// Log is the participant that appends the buffered events to the events
// table. It stages last, after every cascade has settled.
type Log struct {
	buffer *events.Buffer
	plan   *committer.Plan
	codec  *events.Registry

	mu      sync.Mutex
	written int
}

func NewLog(buffer *events.Buffer, plan *committer.Plan, codec *events.Registry) *Log {
	return &Log{buffer: buffer, plan: plan, codec: codec}
}

func (l *Log) Role() transaction.Role {
	return transaction.RoleEventLog
}

// OnBeforeCommit stages one insert per buffered event not yet staged. Rows
// are stamped with the commit timestamp, so the relay publishes commits in
// the order Spanner applied them.
func (l *Log) OnBeforeCommit(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := l.buffer.Since(l.written)
	for _, evt := range fresh {
		payload, err := l.codec.Encode(evt.Payload)
		if err != nil {
			return fmt.Errorf("eventlog: stage %s#%d: %w", evt.AggregateID, evt.Sequence, err)
		}
		values := m_event.BuildInsertMap(evt.AggregateID, evt.Sequence, evt.ID, evt.AggregateType,
			evt.Type, string(payload), evt.OccurredAt)
		l.plan.Add(m_event.InsertMutation(values))
	}
	l.written += len(fresh)
	return nil
}

// Written returns how many events were staged in the current commit.
func (l *Log) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

func (l *Log) OnCommitSucceeded(context.Context) error {
	l.reset()
	return nil
}

func (l *Log) OnCommitFailed(context.Context) error {
	l.reset()
	return nil
}

func (l *Log) reset() {
	l.mu.Lock()
	l.written = 0
	l.mu.Unlock()
}
