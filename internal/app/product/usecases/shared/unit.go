// Package shared holds what every write use case does the same way: open a
// unit of work with a product store, run the domain call, commit.
package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	contracts "github.com/murkotick/product-projections/internal/app/product/contracts"
	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/repo"
	"github.com/murkotick/product-projections/internal/pkg/clock"
	"github.com/murkotick/product-projections/internal/pkg/transaction"
	"github.com/murkotick/product-projections/internal/pkg/unitofwork"
)

// Deps are the collaborators of a write use case.
type Deps struct {
	Units  *unitofwork.Factory
	Reader contracts.ProductReader
	Repo   contracts.ProductRepo
	Clock  clock.Clock
	Logger *slog.Logger
}

// Execute runs fn in a fresh unit of work and commits it. A failing fn rolls
// the unit of work back. A commit that became durable but whose success
// handlers failed is logged and reported as success.
func (d Deps) Execute(ctx context.Context, fn func(store *repo.ProductStore, now time.Time) error) error {
	var store *repo.ProductStore
	u := d.Units.Begin(repo.NewProductStore(d.Reader, d.Repo, func(s *repo.ProductStore) { store = s }))

	if err := fn(store, d.now()); err != nil {
		_ = u.Rollback(ctx)
		return err
	}

	err := u.Commit(ctx)
	if errors.Is(err, transaction.ErrPostCommitNotification) {
		d.logger().Warn("commit succeeded with notification errors", "unit_of_work", u.ID(), "err", err)
		return nil
	}
	return repo.TranslateCommitError(err)
}

// Mutate loads productID and applies fn to it in one unit of work.
func (d Deps) Mutate(ctx context.Context, productID string, fn func(p *domain.Product, now time.Time) error) error {
	return d.Execute(ctx, func(store *repo.ProductStore, now time.Time) error {
		p, err := store.Get(ctx, productID)
		if err != nil {
			return err
		}
		return fn(p, now)
	})
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return clock.RealClock{}.Now()
	}
	return d.Clock.Now()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
