package sequencer

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/murkotick/product-projections/internal/pkg/events"
)

const tracerName = "github.com/murkotick/product-projections/internal/pkg/sequencer"

// Handler receives events in stream order.
type Handler func(ctx context.Context, evt *events.Event) error

// Outcome tells what Dispatch did with an event.
type Outcome int

const (
	Delivered Outcome = iota + 1
	Skipped
	Buffered
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Skipped:
		return "skipped"
	case Buffered:
		return "buffered"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type queue struct {
	mu      sync.Mutex
	pending map[int64]Delivery
}

// Dispatcher hands events to a Handler exactly once per stream position and
// in stream order, one queue at a time.
type Dispatcher struct {
	sequencer Sequencer
	store     Store
	handler   Handler
	workers   int
	retryMin  time.Duration
	retryMax  time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer

	mu     sync.Mutex
	queues map[string]*queue
}

type Option func(*Dispatcher)

// WithWorkers sets how many workers Run starts. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithRetryBackoff bounds the wait between two attempts of a failed
// delivery in Run. The wait doubles from lo up to hi.
func WithRetryBackoff(lo, hi time.Duration) Option {
	return func(d *Dispatcher) {
		if lo > 0 && hi >= lo {
			d.retryMin, d.retryMax = lo, hi
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithSequencer(s Sequencer) Option {
	return func(d *Dispatcher) {
		d.sequencer = s
	}
}

func NewDispatcher(store Store, handler Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sequencer: NewSequencer(),
		store:     store,
		handler:   handler,
		workers:   4,
		retryMin:  100 * time.Millisecond,
		retryMax:  30 * time.Second,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		queues:    make(map[string]*queue),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) queue(name string) *queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, ok := d.queues[name]
	if !ok {
		q = &queue{pending: make(map[int64]Delivery)}
		d.queues[name] = q
	}
	return q
}

// Pending returns how many events wait for a gap to close on the queue of aggregateID.
func (d *Dispatcher) Pending(aggregateID string) int {
	q := d.queue(d.sequencer.Queue(aggregateID))
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dispatch delivers evt if it is the next position of its queue. Streams
// start at 1, so a queue the store has never seen expects sequence 1.
// Redeliveries are skipped and early events are held back until their
// predecessors arrive. A handler error leaves the queue where it was, so the
// same event can be dispatched again.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *events.Event) (Outcome, error) {
	return d.dispatch(ctx, Delivery{Event: evt})
}

func (d *Dispatcher) dispatch(ctx context.Context, del Delivery) (Outcome, error) {
	evt := del.Event
	if !d.sequencer.ShouldDispatchSynchronously(evt) {
		if err := d.handler(ctx, evt); err != nil {
			return 0, err
		}
		return Delivered, nil
	}

	name, seq := d.sequencer.Sequence(evt)
	ctx, span := d.tracer.Start(ctx, "sequencer.Dispatch",
		trace.WithAttributes(
			attribute.String("queue", name),
			attribute.Int64("sequence", seq),
			attribute.String("event_type", evt.Type),
		),
	)
	defer span.End()

	q := d.queue(name)
	q.mu.Lock()
	defer q.mu.Unlock()

	// An unknown queue reads as 0.
	last, _, err := d.store.Last(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	var outcome Outcome
	switch {
	case seq <= last:
		d.logger.Debug("redelivered event skipped", "queue", name, "sequence", seq, "last", last)
		outcome = Skipped
	case seq > last+1:
		// A redelivery replaces the held copy; acking the later offset covers both.
		q.pending[seq] = del
		d.logger.Debug("event buffered until gap closes", "queue", name, "sequence", seq, "last", last)
		outcome = Buffered
	default:
		if err := d.deliver(ctx, name, evt, seq); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
		outcome, last = Delivered, seq
	}
	span.SetAttributes(attribute.String("outcome", outcome.String()))

	// A successor left behind by an earlier failure is retried here too.
	if err := d.drain(ctx, name, q, last); err != nil {
		span.RecordError(err)
		return outcome, err
	}
	return outcome, nil
}

func (d *Dispatcher) deliver(ctx context.Context, name string, evt *events.Event, seq int64) error {
	if err := d.handler(ctx, evt); err != nil {
		return fmt.Errorf("sequencer: deliver %s#%d: %w", name, seq, err)
	}
	if _, err := d.store.Advance(ctx, name, seq); err != nil {
		return err
	}
	return nil
}

// drain delivers buffered successors of last while they are contiguous and
// acknowledges each one. A failed successor stays pending. Caller holds q.mu.
func (d *Dispatcher) drain(ctx context.Context, name string, q *queue, last int64) error {
	for seq, del := range q.pending {
		if seq <= last {
			delete(q.pending, seq)
			d.ack(ctx, del, Skipped)
		}
	}
	for {
		next, ok := q.pending[last+1]
		if !ok {
			return nil
		}
		if err := d.deliver(ctx, name, next.Event, last+1); err != nil {
			return err
		}
		delete(q.pending, last+1)
		d.ack(ctx, next, Delivered)
		last++
	}
}

func (d *Dispatcher) ack(ctx context.Context, del Delivery, outcome Outcome) {
	if del.Ack == nil {
		return
	}
	if err := del.Ack(ctx); err != nil {
		d.logger.Warn("ack failed", "event_id", del.Event.ID, "outcome", outcome.String(), "err", err)
	}
}

// Delivery is one event read from a Source. Ack is called once the event was
// handled or found to be a redelivery; it may be nil. A buffered delivery is
// acknowledged when the gap before it closes.
type Delivery struct {
	Event *events.Event
	Ack   func(ctx context.Context) error
}

// Source yields events to Run. Fetch blocks until an event is available or
// ctx is done.
type Source interface {
	Fetch(ctx context.Context) (Delivery, error)
}

// Run reads src until ctx is canceled or src fails, routing every queue to
// one worker so a queue is only ever written by a single goroutine.
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	g, ctx := errgroup.WithContext(ctx)

	lanes := make([]chan Delivery, d.workers)
	for i := range lanes {
		lane := make(chan Delivery, 64)
		lanes[i] = lane
		g.Go(func() error {
			d.work(ctx, lane)
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, lane := range lanes {
				close(lane)
			}
		}()
		for {
			del, err := src.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("sequencer: fetch: %w", err)
			}
			if del.Event == nil {
				continue
			}
			lane := lanes[d.lane(del.Event.AggregateID)]
			select {
			case lane <- del:
			case <-ctx.Done():
				return nil
			}
		}
	})

	return g.Wait()
}

func (d *Dispatcher) lane(aggregateID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(d.sequencer.Queue(aggregateID)))
	return int(h.Sum32() % uint32(d.workers))
}

// work dispatches the deliveries of one lane. A failed delivery is retried
// with backoff before the lane moves on, so a stream never skips past it.
func (d *Dispatcher) work(ctx context.Context, lane <-chan Delivery) {
	for del := range lane {
		wait := d.retryMin
		for attempt := 1; ; attempt++ {
			outcome, err := d.dispatch(ctx, del)
			if err == nil {
				if outcome != Buffered {
					d.ack(ctx, del, outcome)
				}
				break
			}
			d.logger.Error("dispatch failed",
				"event_id", del.Event.ID,
				"aggregate_id", del.Event.AggregateID,
				"sequence", del.Event.Sequence,
				"attempt", attempt,
				"retry_in", wait,
				"err", err,
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			wait = min(wait*2, d.retryMax)
		}
	}
}

// Queues returns the names of the queues seen so far, sorted.
func (d *Dispatcher) Queues() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.queues))
	for name := range d.queues {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
