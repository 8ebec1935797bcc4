package create_product

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/repo"
	shared "github.com/murkotick/product-projections/internal/app/product/usecases/shared"
)

// Request is the application-level create-product request.
type Request struct {
	Name           string
	Description    string
	Category       string
	BasePriceCents int64
}

// Interactor implements the create-product usecase.
type Interactor struct {
	shared.Deps
}

// NewInteractor constructs the interactor.
func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{Deps: deps}
}

// Execute creates a new draft product. Its snapshot, summary and events are
// written in a single commit.
func (it *Interactor) Execute(ctx context.Context, req Request) (string, error) {
	id := uuid.New().String()
	err := it.Deps.Execute(ctx, func(store *repo.ProductStore, now time.Time) error {
		product, err := domain.NewProduct(id, req.Name, req.Description, req.Category, domain.Cents(req.BasePriceCents), now)
		if err != nil {
			return err
		}
		store.Add(product)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
