package get_product

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/dto"
)

// SpannerGetProductQuery reads one product summary from Spanner directly.
type SpannerGetProductQuery struct {
	Client *spanner.Client
}

func NewSpannerGetProductQuery(client *spanner.Client) *SpannerGetProductQuery {
	return &SpannerGetProductQuery{Client: client}
}

// GetProduct returns the summary row of productID or domain.ErrProductNotFound.
func (q *SpannerGetProductQuery) GetProduct(ctx context.Context, productID string) (*dto.ProductSummaryDTO, error) {
	stmt := spanner.Statement{
		SQL: `SELECT product_id, name, category, status,
		             base_price_cents, effective_price_cents, last_sequence, updated_at
		      FROM product_summaries
		      WHERE product_id = @id`,
		Params: map[string]interface{}{"id": productID},
	}

	iter := q.Client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	return ScanSummary(row)
}

// LoadTarget makes the query a projection target loader: projectors that run
// outside the writing unit of work start from the summary row. A missing row
// yields a nil target.
func (q *SpannerGetProductQuery) LoadTarget(ctx context.Context, aggregateType, aggregateID string) (any, error) {
	if aggregateType != domain.AggregateType {
		return nil, nil
	}
	s, err := q.GetProduct(ctx, aggregateID)
	if err == domain.ErrProductNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ScanSummary decodes a row selected with the product_summaries column order.
func ScanSummary(row *spanner.Row) (*dto.ProductSummaryDTO, error) {
	var (
		out       dto.ProductSummaryDTO
		effective spanner.NullInt64
	)
	if err := row.Columns(&out.ProductID, &out.Name, &out.Category, &out.Status,
		&out.BasePriceCents, &effective, &out.LastSequence, &out.UpdatedAt); err != nil {
		return nil, err
	}
	if effective.Valid {
		v := effective.Int64
		out.EffectivePriceCents = &v
	}
	return &out, nil
}
