package eventlog

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/murkotick/product-projections/internal/models/m_event"
	"github.com/murkotick/product-projections/internal/pkg/committer"
)

// Store reads the events table and marks relayed rows.
type Store interface {
	Pending(ctx context.Context, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, recs []Record, at time.Time) error
}

// SpannerStore is the Spanner implementation of Store.
type SpannerStore struct {
	client    *spanner.Client
	committer committer.Committer
}

func NewSpannerStore(client *spanner.Client, cm committer.Committer) *SpannerStore {
	return &SpannerStore{client: client, committer: cm}
}

const selectColumns = `aggregate_id, sequence, event_id, aggregate_type, event_type, payload, occurred_at, status`

// Pending returns up to limit unpublished events, oldest first and in
// stream order within a commit.
func (s *SpannerStore) Pending(ctx context.Context, limit int) ([]Record, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + selectColumns + `
		      FROM events
		      WHERE status = @status
		      ORDER BY created_at ASC, aggregate_id ASC, sequence ASC
		      LIMIT @limit`,
		Params: map[string]interface{}{"status": m_event.StatusPending, "limit": int64(limit)},
	}
	return s.query(ctx, stmt)
}

// ReadStream returns the events of one aggregate with a sequence of at least from.
func (s *SpannerStore) ReadStream(ctx context.Context, aggregateID string, from int64) ([]Record, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + selectColumns + `
		      FROM events
		      WHERE aggregate_id = @id AND sequence >= @from
		      ORDER BY sequence ASC`,
		Params: map[string]interface{}{"id": aggregateID, "from": from},
	}
	return s.query(ctx, stmt)
}

// LastSequence returns the head of a stream. ok is false for an empty stream.
func (s *SpannerStore) LastSequence(ctx context.Context, aggregateID string) (int64, bool, error) {
	stmt := spanner.Statement{
		SQL:    `SELECT MAX(sequence) FROM events WHERE aggregate_id = @id`,
		Params: map[string]interface{}{"id": aggregateID},
	}
	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("eventlog: stream head %s: %w", aggregateID, err)
	}
	var head spanner.NullInt64
	if err := row.Columns(&head); err != nil {
		return 0, false, err
	}
	return head.Int64, head.Valid, nil
}

func (s *SpannerStore) query(ctx context.Context, stmt spanner.Statement) ([]Record, error) {
	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	out := make([]Record, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("eventlog: query: %w", err)
		}
		var (
			r       Record
			payload string
		)
		if err := row.Columns(&r.AggregateID, &r.Sequence, &r.EventID, &r.AggregateType,
			&r.EventType, &payload, &r.OccurredAt, &r.Status); err != nil {
			return nil, err
		}
		r.Payload = []byte(payload)
		out = append(out, r)
	}
}

// MarkPublished flips recs to published in one transaction.
func (s *SpannerStore) MarkPublished(ctx context.Context, recs []Record, at time.Time) error {
	plan := committer.NewPlan()
	for _, r := range recs {
		plan.Add(m_event.MarkPublishedMutation(r.AggregateID, r.Sequence, at))
	}
	return s.committer.Apply(ctx, plan)
}
