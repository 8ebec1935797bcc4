package queries

import (
	"context"

	"cloud.google.com/go/spanner"

	"github.com/murkotick/product-projections/internal/app/product/contracts"
	"github.com/murkotick/product-projections/internal/app/product/dto"
	"github.com/murkotick/product-projections/internal/app/product/queries/get_product"
	"github.com/murkotick/product-projections/internal/app/product/queries/list_activity"
	"github.com/murkotick/product-projections/internal/app/product/queries/list_products"
)

// SpannerReadModel is an infrastructure adapter that satisfies contracts.ReadModel.
// It composes the individual query implementations.
type SpannerReadModel struct {
	getQ      *get_product.SpannerGetProductQuery
	listQ     *list_products.SpannerListProductsQuery
	activityQ *list_activity.SpannerListActivityQuery
}

var _ contracts.ReadModel = (*SpannerReadModel)(nil)

func NewSpannerReadModel(client *spanner.Client) *SpannerReadModel {
	return &SpannerReadModel{
		getQ:      get_product.NewSpannerGetProductQuery(client),
		listQ:     list_products.NewSpannerListProductsQuery(client),
		activityQ: list_activity.NewSpannerListActivityQuery(client),
	}
}

func (rm *SpannerReadModel) GetProduct(ctx context.Context, productID string) (*dto.ProductSummaryDTO, error) {
	return rm.getQ.GetProduct(ctx, productID)
}

func (rm *SpannerReadModel) ListProducts(ctx context.Context, category string, limit, offset int) ([]*dto.ProductSummaryDTO, error) {
	return rm.listQ.ListProducts(ctx, category, limit, offset)
}

func (rm *SpannerReadModel) ListActivity(ctx context.Context, productID string, limit int) ([]*dto.ActivityDTO, error) {
	return rm.activityQ.ListActivity(ctx, productID, limit)
}

// Summaries exposes the summary query, which is also the projection target loader.
func (rm *SpannerReadModel) Summaries() *get_product.SpannerGetProductQuery {
	return rm.getQ
}
