package list_products

import (
	"context"
	"strings"

	contracts "github.com/murkotick/product-projections/internal/app/product/contracts"
	"github.com/murkotick/product-projections/internal/app/product/dto"
)

type Handler struct {
	readModel contracts.ReadModel
}

func NewHandler(r contracts.ReadModel) *Handler {
	return &Handler{readModel: r}
}

// Execute lists active products. An empty category lists every category and
// a non-positive limit means DefaultLimit.
func (h *Handler) Execute(ctx context.Context, category string, limit, offset int) ([]*dto.ProductSummaryDTO, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return h.readModel.ListProducts(ctx, strings.TrimSpace(category), limit, offset)
}
