package projectors

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/spanner"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/dto"
	"github.com/murkotick/product-projections/internal/models/m_product_activity"
	"github.com/murkotick/product-projections/internal/pkg/clock"
	"github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/projection"
)

// ActivityProjector writes a human readable feed entry per event. It runs
// after commit; rows are keyed by stream position so a redelivered event
// rewrites its own row.
type ActivityProjector struct {
	clock clock.Clock

	mu      sync.Mutex
	plan    *committer.Plan
	pending []*spanner.Mutation
}

func NewActivityProjector(clk clock.Clock) *ActivityProjector {
	return &ActivityProjector{clock: clk}
}

func (a *ActivityProjector) ProjectEvents(_ context.Context, target projection.Target, evts []*events.Event) error {
	plan, err := planOf(target)
	if err != nil {
		return err
	}
	name := target.AggregateID
	if s, ok := target.State.(*dto.ProductSummaryDTO); ok && s != nil {
		name = s.Name
	}

	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plan = plan
	for _, e := range evts {
		values := m_product_activity.BuildUpsertMap(e.AggregateID, e.Sequence, e.ID, e.Type,
			Describe(name, e), e.OccurredAt, now)
		a.pending = append(a.pending, m_product_activity.UpsertMutation(values))
	}
	return nil
}

func (a *ActivityProjector) CommitChanges(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) > 0 {
		a.plan.Add(a.pending...)
	}
	a.pending = nil
	return nil
}

// Describe renders one feed line for e.
func Describe(name string, e *events.Event) string {
	switch p := e.Payload.(type) {
	case *domain.ProductCreatedEvent:
		return fmt.Sprintf("%s created in %s at %s", p.Name, p.Category, domain.Cents(p.BasePriceCents))
	case *domain.ProductUpdatedEvent:
		return fmt.Sprintf("%s updated (%s)", name, strings.Join(p.Changed, ", "))
	case *domain.PriceChangedEvent:
		return fmt.Sprintf("%s repriced from %s to %s", name, domain.Cents(p.OldPriceCents), domain.Cents(p.NewPriceCents))
	case *domain.ProductActivatedEvent:
		return fmt.Sprintf("%s activated", name)
	case *domain.ProductDeactivatedEvent:
		return fmt.Sprintf("%s deactivated", name)
	case *domain.DiscountAppliedEvent:
		return fmt.Sprintf("%s discounted %.2f%% until %s", name, float64(p.DiscountBps)/100, p.EndDate.Format("2006-01-02"))
	case *domain.DiscountRemovedEvent:
		return fmt.Sprintf("%s discount removed", name)
	case *domain.EffectivePriceChangedEvent:
		return fmt.Sprintf("%s now sells at %s", name, domain.Cents(p.EffectivePriceCents))
	}
	return fmt.Sprintf("%s: %s", name, e.Type)
}
