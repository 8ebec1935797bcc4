// Package projection turns domain events into read-model writes, either
// inside the unit of work that produced them (synchronous projectors) or
// after it committed (asynchronous projectors).
package projection

import (
	"context"

	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/transaction"
)

// Kind tags a projector registration.
type Kind int

const (
	// KindSync projectors run and settle before the owning unit of work commits.
	KindSync Kind = iota + 1
	// KindAsync projectors run after commit and must tolerate redelivery.
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAsync:
		return "async"
	}
	return "unknown"
}

// Options is passed through ExecuteProjections unchanged.
type Options struct {
	Synchronous bool
}

// Work is the unit-of-work surface projection code needs.
type Work interface {
	EventBuffer() *events.Buffer
	AddInnerTransaction(p transaction.Participant)
	IsWorkBegun() bool
}

// Target is what a projector projects into: the aggregate the events came
// from and, when a TargetLoader is configured, its current read-model state.
type Target struct {
	AggregateType string
	AggregateID   string
	State         any
	// Work lets a projector raise further events into the running unit of work.
	Work Work
}

// Projector applies events to a read model and flushes the accumulated writes.
type Projector interface {
	// ProjectEvents applies evts, all belonging to target, in order.
	ProjectEvents(ctx context.Context, target Target, evts []*events.Event) error
	// CommitChanges flushes the writes accumulated since the last call.
	CommitChanges(ctx context.Context) error
}

// Factory builds one projector instance for one unit of work.
type Factory func() Projector

// TargetLoader loads the read-model state a projector starts from.
type TargetLoader interface {
	LoadTarget(ctx context.Context, aggregateType, aggregateID string) (any, error)
}

// TargetLoaderFunc adapts a function to TargetLoader.
type TargetLoaderFunc func(ctx context.Context, aggregateType, aggregateID string) (any, error)

func (f TargetLoaderFunc) LoadTarget(ctx context.Context, aggregateType, aggregateID string) (any, error) {
	return f(ctx, aggregateType, aggregateID)
}
