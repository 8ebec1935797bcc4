package projection

import (
	"context"
	"fmt"
	"sync"

	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/transaction"
)

// Executor runs a batch of events through the resolved projectors.
type Executor interface {
	ExecuteProjections(ctx context.Context, evts []*events.Event, work Work, opts Options) error
}

// SubSystem executes projections for one unit of work and flushes every
// projector it used when the unit of work stages its commit.
type SubSystem struct {
	resolver *Resolver
	loader   TargetLoader

	mu         sync.Mutex
	used       []Projector
	options    *Options
	registered bool
}

// NewSubSystem creates a subsystem resolving projectors through resolver.
// loader may be nil, in which case targets carry no state.
func NewSubSystem(resolver *Resolver, loader TargetLoader) *SubSystem {
	return &SubSystem{resolver: resolver, loader: loader}
}

func (s *SubSystem) Role() transaction.Role {
	return transaction.RoleProjection
}

type streamGroup struct {
	aggregateType string
	aggregateID   string
	events        []*events.Event
}

// groupByStream partitions evts by aggregate type, then aggregate id, in
// order of first appearance. Relative event order inside a group is kept.
func groupByStream(evts []*events.Event) []*streamGroup {
	var groups []*streamGroup
	index := make(map[[2]string]*streamGroup)
	var typeOrder []string
	byType := make(map[string][]*streamGroup)

	for _, evt := range evts {
		key := [2]string{evt.AggregateType, evt.AggregateID}
		g, ok := index[key]
		if !ok {
			g = &streamGroup{aggregateType: evt.AggregateType, aggregateID: evt.AggregateID}
			index[key] = g
			if _, seen := byType[evt.AggregateType]; !seen {
				typeOrder = append(typeOrder, evt.AggregateType)
			}
			byType[evt.AggregateType] = append(byType[evt.AggregateType], g)
		}
		g.events = append(g.events, evt)
	}

	for _, t := range typeOrder {
		groups = append(groups, byType[t]...)
	}
	return groups
}

// ExecuteProjections projects evts through the synchronous projector set
// when opts.Synchronous is set, else through the asynchronous set. The first
// projector error aborts the whole batch.
func (s *SubSystem) ExecuteProjections(ctx context.Context, evts []*events.Event, work Work, opts Options) error {
	s.ensureRegistered(work)

	s.mu.Lock()
	o := opts
	s.options = &o
	s.mu.Unlock()

	for _, g := range groupByStream(evts) {
		var projectors []Projector
		if opts.Synchronous {
			projectors = s.resolver.SyncProjectors(g.aggregateType)
		} else {
			projectors = s.resolver.Projectors(g.aggregateType)
		}
		if len(projectors) == 0 {
			continue
		}

		target := Target{AggregateType: g.aggregateType, AggregateID: g.aggregateID, Work: work}
		if s.loader != nil {
			state, err := s.loader.LoadTarget(ctx, g.aggregateType, g.aggregateID)
			if err != nil {
				return fmt.Errorf("projection: load target %s/%s: %w", g.aggregateType, g.aggregateID, err)
			}
			target.State = state
		}

		for _, p := range projectors {
			s.markUsed(p)
			if err := p.ProjectEvents(ctx, target, g.events); err != nil {
				return &ProjectionError{
					Projector:     fmt.Sprintf("%T", p),
					AggregateType: g.aggregateType,
					AggregateID:   g.aggregateID,
					Phase:         "project",
					Err:           err,
				}
			}
		}
	}
	return nil
}

func (s *SubSystem) ensureRegistered(work Work) {
	if work == nil {
		return
	}
	s.mu.Lock()
	if s.registered {
		s.mu.Unlock()
		return
	}
	s.registered = true
	s.mu.Unlock()
	work.AddInnerTransaction(s)
}

func (s *SubSystem) markUsed(p Projector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.used {
		if u == p {
			return
		}
	}
	s.used = append(s.used, p)
}

// UsedProjectors returns the projectors invoked since the last commit outcome.
func (s *SubSystem) UsedProjectors() []Projector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Projector(nil), s.used...)
}

// Options returns the options of the last ExecuteProjections call of this
// unit of work, if any.
func (s *SubSystem) Options() (Options, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.options == nil {
		return Options{}, false
	}
	return *s.options, true
}

// OnBeforeCommit flushes every used projector.
func (s *SubSystem) OnBeforeCommit(ctx context.Context) error {
	for _, p := range s.UsedProjectors() {
		if err := p.CommitChanges(ctx); err != nil {
			return &ProjectionError{Projector: fmt.Sprintf("%T", p), Phase: "commit", Err: err}
		}
	}
	return nil
}

func (s *SubSystem) OnCommitSucceeded(context.Context) error {
	s.reset()
	return nil
}

func (s *SubSystem) OnCommitFailed(context.Context) error {
	s.reset()
	return nil
}

func (s *SubSystem) reset() {
	s.mu.Lock()
	s.used = nil
	s.options = nil
	s.mu.Unlock()
}
