package update_product

import (
	"context"
	"time"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	shared "github.com/murkotick/product-projections/internal/app/product/usecases/shared"
)

// Request represents the update product request (partial updates allowed).
type Request struct {
	ProductID      string
	Name           *string
	Description    *string
	Category       *string
	BasePriceCents *int64
}

// Interactor applies partial updates to details and price in one unit of work.
type Interactor struct {
	shared.Deps
}

func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{Deps: deps}
}

func (it *Interactor) Execute(ctx context.Context, req Request) error {
	return it.Mutate(ctx, req.ProductID, func(p *domain.Product, now time.Time) error {
		if err := p.UpdateDetails(deref(req.Name), deref(req.Description), deref(req.Category), now); err != nil {
			return err
		}
		if req.BasePriceCents != nil {
			return p.UpdatePrice(domain.Cents(*req.BasePriceCents), now)
		}
		return nil
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
