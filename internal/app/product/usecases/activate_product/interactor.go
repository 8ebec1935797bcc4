package activate_product

import (
	"context"
	"time"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	shared "github.com/murkotick/product-projections/internal/app/product/usecases/shared"
)

// Request for activating a product
type Request struct {
	ProductID string
}

type Interactor struct {
	shared.Deps
}

func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{Deps: deps}
}

func (it *Interactor) Execute(ctx context.Context, req Request) error {
	return it.Mutate(ctx, req.ProductID, func(p *domain.Product, now time.Time) error {
		return p.Activate(now)
	})
}
