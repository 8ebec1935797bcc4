package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/murkotick/product-projections/internal/pkg/clock"
	"github.com/murkotick/product-projections/internal/pkg/events"
)

// Publisher hands committed events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, evts ...*events.Event) error
}

type RelayConfig struct {
	PollEvery time.Duration
	BatchSize int
}

// Relay polls the events table for pending rows, publishes them, and marks
// them published. A row is only marked after the bus accepted it, so a
// crash in between republishes; consumers skip the duplicates by sequence.
type Relay struct {
	store     Store
	publisher Publisher
	codec     *events.Registry
	clock     clock.Clock
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
}

func NewRelay(store Store, publisher Publisher, codec *events.Registry, clk clock.Clock, logger *slog.Logger, cfg RelayConfig) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		codec:     codec,
		clock:     clk,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// Run publishes a batch every poll interval until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.PublishBatch(ctx)
			if err != nil {
				r.logger.Error("event relay failed", "err", err)
				continue
			}
			if n > 0 {
				r.logger.Debug("events relayed", "count", n)
			}
		}
	}
}

// PublishBatch relays one batch and returns how many events were published.
func (r *Relay) PublishBatch(ctx context.Context) (int, error) {
	recs, err := r.store.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}

	evts := make([]*events.Event, 0, len(recs))
	for _, rec := range recs {
		evt, err := rec.Event(r.codec)
		if err != nil {
			return 0, fmt.Errorf("eventlog: decode %s#%d: %w", rec.AggregateID, rec.Sequence, err)
		}
		evts = append(evts, evt)
	}

	if err := r.publisher.Publish(ctx, evts...); err != nil {
		return 0, fmt.Errorf("eventlog: publish: %w", err)
	}
	if err := r.store.MarkPublished(ctx, recs, r.clock.Now()); err != nil {
		return 0, fmt.Errorf("eventlog: mark published: %w", err)
	}
	return len(recs), nil
}
