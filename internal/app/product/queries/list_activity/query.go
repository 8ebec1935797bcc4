package list_activity

import (
	"context"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/murkotick/product-projections/internal/app/product/dto"
)

// SpannerListActivityQuery reads the asynchronous activity feed of one product.
type SpannerListActivityQuery struct {
	Client *spanner.Client
}

func NewSpannerListActivityQuery(client *spanner.Client) *SpannerListActivityQuery {
	return &SpannerListActivityQuery{Client: client}
}

// ListActivity returns up to limit entries in stream order.
func (q *SpannerListActivityQuery) ListActivity(ctx context.Context, productID string, limit int) ([]*dto.ActivityDTO, error) {
	if limit <= 0 {
		limit = 100
	}
	stmt := spanner.Statement{
		SQL: `SELECT product_id, sequence, event_id, event_type, summary, occurred_at, recorded_at
		      FROM product_activity
		      WHERE product_id = @id
		      ORDER BY sequence ASC
		      LIMIT @limit`,
		Params: map[string]interface{}{"id": productID, "limit": int64(limit)},
	}
	iter := q.Client.Single().Query(ctx, stmt)
	defer iter.Stop()

	out := make([]*dto.ActivityDTO, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var a dto.ActivityDTO
		if err := row.Columns(&a.ProductID, &a.Sequence, &a.EventID, &a.EventType,
			&a.Summary, &a.OccurredAt, &a.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
}
