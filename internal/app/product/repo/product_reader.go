package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/grpc/codes"

	domain "github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/models/m_product"
)

// StreamHead reports the last stream position written for an aggregate.
type StreamHead interface {
	LastSequence(ctx context.Context, aggregateID string) (int64, bool, error)
}

// SpannerProductReader loads product snapshots for the write side.
type SpannerProductReader struct {
	client *spanner.Client
	heads  StreamHead
}

func NewSpannerProductReader(client *spanner.Client, heads StreamHead) *SpannerProductReader {
	return &SpannerProductReader{client: client, heads: heads}
}

// Load reads the snapshot of productID. The snapshot version lags the stream
// when projections appended events after the aggregate's own, so the version
// handed to the aggregate is the stream head.
func (r *SpannerProductReader) Load(ctx context.Context, productID string) (*domain.Product, error) {
	row, err := r.client.Single().ReadRow(ctx, m_product.TableName, spanner.Key{productID}, m_product.Columns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}

	var s snapshot
	if err := row.ToStruct(&s); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", productID, err)
	}

	version := s.Version
	if r.heads != nil {
		last, ok, err := r.heads.LastSequence(ctx, productID)
		if err != nil {
			return nil, err
		}
		if ok && last > version {
			version = last
		}
	}
	return s.product(version), nil
}

// snapshot mirrors one products row.
type snapshot struct {
	ProductID         string             `spanner:"product_id"`
	Name              string             `spanner:"name"`
	Description       spanner.NullString `spanner:"description"`
	Category          string             `spanner:"category"`
	BasePriceCents    int64              `spanner:"base_price_cents"`
	DiscountBps       spanner.NullInt64  `spanner:"discount_bps"`
	DiscountStartDate spanner.NullTime   `spanner:"discount_start_date"`
	DiscountEndDate   spanner.NullTime   `spanner:"discount_end_date"`
	Status            string             `spanner:"status"`
	Version           int64              `spanner:"version"`
	CreatedAt         spanner.NullTime   `spanner:"created_at"`
	UpdatedAt         spanner.NullTime   `spanner:"updated_at"`
}

func (s snapshot) product(version int64) *domain.Product {
	var discount *domain.Discount
	if s.DiscountBps.Valid && s.DiscountStartDate.Valid && s.DiscountEndDate.Valid {
		// rows are only ever written from valid discounts
		discount, _ = domain.NewDiscountBps(s.DiscountBps.Int64, s.DiscountStartDate.Time, s.DiscountEndDate.Time)
	}
	return domain.ReconstructProduct(
		s.ProductID,
		s.Name,
		s.Description.StringVal,
		s.Category,
		domain.Cents(s.BasePriceCents),
		discount,
		domain.ProductStatus(s.Status),
		version,
		s.CreatedAt.Time,
		s.UpdatedAt.Time,
	)
}
