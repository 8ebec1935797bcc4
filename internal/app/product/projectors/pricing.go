package projectors

import (
	"context"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/app/product/domain/services"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/projection"
)

// PricingProjector raises product.effective_price_changed into the running
// unit of work whenever a batch touches the base price or the discount. The
// raised event goes through the synchronous projectors in a further pass.
type PricingProjector struct {
	calc *services.PricingCalculator
}

func NewPricingProjector() projection.Projector {
	return &PricingProjector{calc: services.NewPricingCalculator()}
}

func repricing(eventType string) bool {
	switch eventType {
	case domain.EventProductCreated, domain.EventPriceChanged,
		domain.EventDiscountApplied, domain.EventDiscountRemoved:
		return true
	}
	return false
}

func (p *PricingProjector) ProjectEvents(_ context.Context, target projection.Target, evts []*events.Event) error {
	var trigger *events.Event
	for _, e := range evts {
		if repricing(e.Type) {
			trigger = e
		}
	}
	if trigger == nil {
		return nil
	}

	product, err := productOf(target)
	if err != nil || product == nil {
		return err
	}

	at := trigger.OccurredAt
	buffer := target.Work.EventBuffer()
	seq := buffer.NextSequence(target.AggregateID)
	if seq == 0 {
		seq = evts[len(evts)-1].Sequence + 1
	}
	buffer.Append(events.New(domain.AggregateType, seq, &domain.EffectivePriceChangedEvent{
		ProductID:           product.ID(),
		BasePriceCents:      product.BasePrice().Cents(),
		DiscountBps:         p.calc.EffectiveDiscountBps(product.Discount(), at),
		EffectivePriceCents: p.calc.CalculateEffectivePrice(product.BasePrice(), product.Discount(), at).Cents(),
		ChangedAt:           at,
	}))
	return nil
}

// CommitChanges has nothing to flush; the raised events are written by the event log.
func (p *PricingProjector) CommitChanges(context.Context) error {
	return nil
}
