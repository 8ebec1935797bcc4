package list_activity

import (
	"context"

	contracts "github.com/murkotick/product-projections/internal/app/product/contracts"
	"github.com/murkotick/product-projections/internal/app/product/dto"
)

// MaxLimit caps one activity page.
const MaxLimit = 500

type Handler struct {
	readModel contracts.ReadModel
}

func NewHandler(r contracts.ReadModel) *Handler {
	return &Handler{readModel: r}
}

func (h *Handler) Execute(ctx context.Context, productID string, limit int) ([]*dto.ActivityDTO, error) {
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return h.readModel.ListActivity(ctx, productID, limit)
}
