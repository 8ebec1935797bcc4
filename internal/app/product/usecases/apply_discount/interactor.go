package apply_discount

import (
	"context"
	"time"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	shared "github.com/murkotick/product-projections/internal/app/product/usecases/shared"
)

// Request to apply a discount
type Request struct {
	ProductID  string
	Percentage float64 // 0-100 scale as domain.NewDiscount expects
	StartDate  time.Time
	EndDate    time.Time
}

type Interactor struct {
	shared.Deps
}

func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{Deps: deps}
}

func (it *Interactor) Execute(ctx context.Context, req Request) error {
	discount, err := domain.NewDiscount(req.Percentage, req.StartDate, req.EndDate)
	if err != nil {
		return err
	}
	return it.Mutate(ctx, req.ProductID, func(p *domain.Product, now time.Time) error {
		return p.ApplyDiscount(discount, now)
	})
}
