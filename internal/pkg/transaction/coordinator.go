package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/murkotick/product-projections/internal/pkg/transaction"

// DefaultMaxDrainPasses bounds how often a Repeater is re-run in one commit.
const DefaultMaxDrainPasses = 32

// State is the lifecycle position of a Coordinator.
type State int

const (
	StateIdle State = iota
	StateStaging
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaging:
		return "staging"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PhysicalCommit makes the staged writes durable.
type PhysicalCommit func(ctx context.Context) error

// Coordinator runs the before-commit, commit, and notification phases over
// an ordered set of participants.
type Coordinator struct {
	mu           sync.Mutex
	participants []Participant
	state        State

	commit         PhysicalCommit
	maxDrainPasses int
	logger         *slog.Logger
	tracer         trace.Tracer
}

type Option func(*Coordinator)

// WithMaxDrainPasses overrides DefaultMaxDrainPasses. Values below 1 are ignored.
func WithMaxDrainPasses(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxDrainPasses = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewCoordinator creates a coordinator whose physical commit is commit.
// A nil commit is treated as a no-op.
func NewCoordinator(commit PhysicalCommit, opts ...Option) *Coordinator {
	if commit == nil {
		commit = func(context.Context) error { return nil }
	}
	c := &Coordinator{
		commit:         commit,
		maxDrainPasses: DefaultMaxDrainPasses,
		logger:         slog.Default(),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddParticipant registers p. Registering the same participant twice is a no-op.
func (c *Coordinator) AddParticipant(p Participant) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.participants {
		if existing == p {
			return
		}
	}
	c.participants = append(c.participants, p)
}

// Participants returns the registered participants in staging order.
func (c *Coordinator) Participants() []Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderedLocked()
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// orderedLocked sorts participants by role, keeping registration order within a role.
func (c *Coordinator) orderedLocked() []Participant {
	out := make([]Participant, len(c.participants))
	copy(out, c.participants)
	sort.SliceStable(out, func(i, j int) bool {
		return RoleOf(out[i]) < RoleOf(out[j])
	})
	c.participants = out
	ordered := make([]Participant, len(out))
	copy(ordered, out)
	return ordered
}

// Commit stages every participant in role order, runs the physical commit,
// and notifies every participant of the outcome. Failures are returned as
// *CommitError wrapping the original error.
func (c *Coordinator) Commit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateStaging {
		c.mu.Unlock()
		return ErrCommitInProgress
	}
	c.state = StateStaging
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, "transaction.Commit")
	defer span.End()

	err := c.stage(ctx)
	if err == nil {
		span.AddEvent("physical_commit")
		if cerr := c.commit(ctx); cerr != nil {
			err = &CommitError{Stage: StagePhysicalCommit, Err: cerr}
		}
	}

	// Notifications run to completion even if the caller's context is gone.
	notifyCtx := context.WithoutCancel(ctx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.notifyFailed(notifyCtx)
		c.setState(StateFailed)
		return err
	}

	c.setState(StateCommitted)
	if nerr := c.notifySucceeded(notifyCtx); nerr != nil {
		span.RecordError(nerr)
		return fmt.Errorf("%w: %w", ErrPostCommitNotification, nerr)
	}
	return nil
}

// Abort ends an open transaction without committing. Every participant is
// told the commit failed.
func (c *Coordinator) Abort(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateStaging {
		c.mu.Unlock()
		return ErrCommitInProgress
	}
	c.state = StateStaging
	c.mu.Unlock()

	c.notifyFailed(context.WithoutCancel(ctx))
	c.setState(StateFailed)
	return nil
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// stage runs OnBeforeCommit sequentially in role order. The order is
// re-read after every participant, so one registered while staging runs
// before any higher role still waiting. Registering below a role that
// already staged fails the commit.
func (c *Coordinator) stage(ctx context.Context) error {
	staged := make(map[Participant]struct{})
	highest := RoleUnknown
	for {
		c.mu.Lock()
		ordered := c.orderedLocked()
		c.mu.Unlock()

		var next Participant
		for _, p := range ordered {
			if _, done := staged[p]; !done {
				next = p
				break
			}
		}
		if next == nil {
			return nil
		}
		staged[next] = struct{}{}

		role := RoleOf(next)
		if role < highest {
			return &CommitError{Stage: StageBeforeCommit, Participant: fmt.Sprintf("%T", next), Err: ErrLateParticipant}
		}
		highest = role
		if err := c.stageOne(ctx, next); err != nil {
			return err
		}
	}
}

func (c *Coordinator) stageOne(ctx context.Context, p Participant) error {
	name := fmt.Sprintf("%T", p)
	_, span := c.tracer.Start(ctx, "transaction.OnBeforeCommit",
		trace.WithAttributes(
			attribute.String("participant", name),
			attribute.String("role", RoleOf(p).String()),
		),
	)
	defer span.End()

	if err := p.OnBeforeCommit(ctx); err != nil {
		span.RecordError(err)
		return &CommitError{Stage: StageBeforeCommit, Participant: name, Err: err}
	}

	r, ok := p.(Repeater)
	if !ok {
		return nil
	}
	passes := 1
	for r.HasPendingWork() {
		if passes >= c.maxDrainPasses {
			return &CommitError{Stage: StageBeforeCommit, Participant: name, Err: ErrDrainLimit}
		}
		passes++
		if err := p.OnBeforeCommit(ctx); err != nil {
			span.RecordError(err)
			return &CommitError{Stage: StageBeforeCommit, Participant: name, Err: err}
		}
	}
	span.SetAttributes(attribute.Int("passes", passes))
	return nil
}

func (c *Coordinator) notifyFailed(ctx context.Context) {
	for _, p := range c.Participants() {
		if err := p.OnCommitFailed(ctx); err != nil {
			c.logger.Error("commit failure handler failed", "participant", fmt.Sprintf("%T", p), "err", err)
		}
	}
}

func (c *Coordinator) notifySucceeded(ctx context.Context) error {
	var errs []error
	for _, p := range c.Participants() {
		if err := p.OnCommitSucceeded(ctx); err != nil {
			c.logger.Error("commit success handler failed", "participant", fmt.Sprintf("%T", p), "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
