package contracts

import (
	"context"

	"github.com/murkotick/product-projections/internal/app/product/dto"
)

// ReadModel serves the projected read models.
type ReadModel interface {
	GetProduct(ctx context.Context, productID string) (*dto.ProductSummaryDTO, error)
	ListProducts(ctx context.Context, category string, limit, offset int) ([]*dto.ProductSummaryDTO, error)
	ListActivity(ctx context.Context, productID string, limit int) ([]*dto.ActivityDTO, error)
}
