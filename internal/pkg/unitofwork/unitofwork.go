// Package unitofwork hosts one business transaction: the event buffer, the
// commit plan, and the coordinator that stages every participant into the
// plan before it is applied.
package unitofwork

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/eventlog"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/projection"
	"github.com/murkotick/product-projections/internal/pkg/transaction"
)

// ErrWorkEnded is returned when a finished unit of work is committed again.
var ErrWorkEnded = errors.New("unitofwork: work already ended")

// Constructor builds a participant bound to a unit of work.
type Constructor func(u *UnitOfWork) transaction.Participant

// UnitOfWork is created by Factory.Begin with every participant already
// registered.
type UnitOfWork struct {
	id          string
	buffer      *events.Buffer
	plan        *committer.Plan
	coordinator *transaction.Coordinator
	subsystem   *projection.SubSystem
	hook        *projection.SyncHook
	log         *eventlog.Log
	fallback    projection.TargetLoader

	mu      sync.Mutex
	begun   bool
	loaders []projection.TargetLoader
}

var _ projection.Work = (*UnitOfWork)(nil)

func (u *UnitOfWork) ID() string {
	return u.id
}

func (u *UnitOfWork) EventBuffer() *events.Buffer {
	return u.buffer
}

func (u *UnitOfWork) Plan() *committer.Plan {
	return u.plan
}

// AddInnerTransaction registers p with the coordinator.
func (u *UnitOfWork) AddInnerTransaction(p transaction.Participant) {
	u.coordinator.AddParticipant(p)
}

// IsWorkBegun reports whether the unit of work is still open.
func (u *UnitOfWork) IsWorkBegun() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.begun
}

// Participants returns the registered participants in staging order.
func (u *UnitOfWork) Participants() []transaction.Participant {
	return u.coordinator.Participants()
}

// Project runs evts through the projection subsystem of this unit of work.
func (u *UnitOfWork) Project(ctx context.Context, evts []*events.Event, opts projection.Options) error {
	return u.subsystem.ExecuteProjections(ctx, evts, u, opts)
}

// LoadTarget asks the participants that can load targets first, then the
// factory-wide loader.
func (u *UnitOfWork) LoadTarget(ctx context.Context, aggregateType, aggregateID string) (any, error) {
	u.mu.Lock()
	loaders := append([]projection.TargetLoader(nil), u.loaders...)
	u.mu.Unlock()

	for _, l := range loaders {
		state, err := l.LoadTarget(ctx, aggregateType, aggregateID)
		if err != nil {
			return nil, err
		}
		if state != nil {
			return state, nil
		}
	}
	if u.fallback != nil {
		return u.fallback.LoadTarget(ctx, aggregateType, aggregateID)
	}
	return nil, nil
}

// Commit stages every participant, applies the plan, and ends the unit of
// work whatever the outcome.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	if !u.begun {
		u.mu.Unlock()
		return ErrWorkEnded
	}
	u.mu.Unlock()

	err := u.coordinator.Commit(ctx)

	u.mu.Lock()
	u.begun = false
	u.mu.Unlock()
	return err
}

// Rollback ends the unit of work without committing.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	if !u.begun {
		u.mu.Unlock()
		return ErrWorkEnded
	}
	u.begun = false
	u.mu.Unlock()
	return u.coordinator.Abort(ctx)
}

// Factory creates units of work sharing one projector registry and one committer.
type Factory struct {
	committer      committer.Committer
	registry       *projection.Registry
	codec          *events.Registry
	loader         projection.TargetLoader
	logger         *slog.Logger
	maxDrainPasses int
}

type Option func(*Factory)

// WithTargetLoader sets the loader used when no participant knows the target.
func WithTargetLoader(l projection.TargetLoader) Option {
	return func(f *Factory) {
		f.loader = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithMaxDrainPasses(n int) Option {
	return func(f *Factory) {
		f.maxDrainPasses = n
	}
}

func NewFactory(cm committer.Committer, registry *projection.Registry, codec *events.Registry, opts ...Option) *Factory {
	f := &Factory{
		committer:      cm,
		registry:       registry,
		codec:          codec,
		logger:         slog.Default(),
		maxDrainPasses: transaction.DefaultMaxDrainPasses,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Begin opens a unit of work. The projection subsystem, the synchronous
// projection hook, the event log and every participant built by extra are
// constructed and registered before Begin returns.
func (f *Factory) Begin(extra ...Constructor) *UnitOfWork {
	u := &UnitOfWork{
		id:       uuid.New().String(),
		buffer:   events.NewBuffer(),
		plan:     committer.NewPlan(),
		fallback: f.loader,
		begun:    true,
	}
	u.coordinator = transaction.NewCoordinator(
		func(ctx context.Context) error { return f.committer.Apply(ctx, u.plan) },
		transaction.WithMaxDrainPasses(f.maxDrainPasses),
		transaction.WithLogger(f.logger.With("unit_of_work", u.id)),
	)
	u.subsystem = projection.NewSubSystem(f.registry.Scope(), u)
	u.hook = projection.NewSyncHook(u, u.subsystem)
	u.log = eventlog.NewLog(u.buffer, u.plan, f.codec)

	u.AddInnerTransaction(u.subsystem)
	u.AddInnerTransaction(u.hook)
	u.AddInnerTransaction(u.log)
	for _, build := range extra {
		p := build(u)
		if p == nil {
			continue
		}
		if l, ok := p.(projection.TargetLoader); ok {
			u.loaders = append(u.loaders, l)
		}
		u.AddInnerTransaction(p)
	}
	return u
}

// ProjectAsync is the asynchronous projection handler: it runs evt through
// the asynchronous projectors in a unit of work of its own and commits it.
func (f *Factory) ProjectAsync(ctx context.Context, evt *events.Event) error {
	u := f.Begin()
	if err := u.Project(ctx, []*events.Event{evt}, projection.Options{Synchronous: false}); err != nil {
		_ = u.Rollback(ctx)
		return err
	}
	return u.Commit(ctx)
}
