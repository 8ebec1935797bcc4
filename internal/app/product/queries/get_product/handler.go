package get_product

import (
	"context"
	"strings"

	contracts "github.com/murkotick/product-projections/internal/app/product/contracts"
	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/dto"
)

// Handler serves single product lookups from the summary projection.
type Handler struct {
	readModel contracts.ReadModel
}

func NewHandler(r contracts.ReadModel) *Handler {
	return &Handler{readModel: r}
}

// Execute returns the summary of productID. A blank id never matches a row.
func (h *Handler) Execute(ctx context.Context, productID string) (*dto.ProductSummaryDTO, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.ErrProductNotFound
	}
	return h.readModel.GetProduct(ctx, productID)
}
