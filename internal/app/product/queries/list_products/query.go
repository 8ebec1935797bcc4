package list_products

import (
	"context"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/dto"
	"github.com/murkotick/product-projections/internal/app/product/queries/get_product"
)

// DefaultLimit applies when a caller passes a non-positive limit.
const DefaultLimit = 50

// SpannerListProductsQuery lists active product summaries with an optional category filter.
type SpannerListProductsQuery struct {
	Client *spanner.Client
}

func NewSpannerListProductsQuery(client *spanner.Client) *SpannerListProductsQuery {
	return &SpannerListProductsQuery{Client: client}
}

// ListProducts returns active products ordered by name, skipping offset rows.
func (q *SpannerListProductsQuery) ListProducts(ctx context.Context, category string, limit, offset int) ([]*dto.ProductSummaryDTO, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	sql := `SELECT product_id, name, category, status,
	               base_price_cents, effective_price_cents, last_sequence, updated_at
	        FROM product_summaries
	        WHERE status = @status`
	params := map[string]interface{}{"status": string(domain.ProductStatusActive)}
	if category != "" {
		sql += " AND category = @category"
		params["category"] = category
	}
	sql += " ORDER BY name ASC, product_id ASC LIMIT @limit OFFSET @offset"
	params["limit"] = int64(limit)
	params["offset"] = int64(offset)

	iter := q.Client.Single().Query(ctx, spanner.Statement{SQL: sql, Params: params})
	defer iter.Stop()

	out := make([]*dto.ProductSummaryDTO, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		s, err := get_product.ScanSummary(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}
