// Package projectors holds the read-model projections of the product stream.
package projectors

import (
	"errors"
	"fmt"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/pkg/clock"
	"github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/projection"
)

// ErrNoPlan is returned when a projector runs in a unit of work without a commit plan.
var ErrNoPlan = errors.New("projectors: unit of work has no commit plan")

type planned interface {
	Plan() *committer.Plan
}

func planOf(target projection.Target) (*committer.Plan, error) {
	p, ok := target.Work.(planned)
	if !ok || p.Plan() == nil {
		return nil, ErrNoPlan
	}
	return p.Plan(), nil
}

func productOf(target projection.Target) (*domain.Product, error) {
	if target.State == nil {
		return nil, nil
	}
	p, ok := target.State.(*domain.Product)
	if !ok {
		return nil, fmt.Errorf("projectors: target %s is %T, want *domain.Product", target.AggregateID, target.State)
	}
	return p, nil
}

// Register binds every product projector to reg. Pricing runs before the
// summary so the summary sees the effective price in the same pass when it can.
func Register(reg *projection.Registry, clk clock.Clock) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	reg.Register(domain.AggregateType, projection.KindSync, NewPricingProjector)
	reg.Register(domain.AggregateType, projection.KindSync, NewSummaryProjector)
	reg.Register(domain.AggregateType, projection.KindAsync, func() projection.Projector {
		return NewActivityProjector(clk)
	})
}
