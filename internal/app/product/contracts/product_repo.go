package contracts

import (
	"context"

	"cloud.google.com/go/spanner"
	domain "github.com/murkotick/product-projections/internal/app/product/domain"
)

// ProductRepo is the write-side repository interface for products.
// Methods return Spanner mutations; they do not apply them.
type ProductRepo interface {
	// InsertMut returns a mutation that inserts the product snapshot.
	InsertMut(p *domain.Product) *spanner.Mutation

	// UpdateMut returns a mutation that updates the product according to its ChangeTracker (or nil).
	UpdateMut(p *domain.Product) *spanner.Mutation
}

// ProductReader loads a product with its version set to the head of its stream.
type ProductReader interface {
	Load(ctx context.Context, productID string) (*domain.Product, error)
}
