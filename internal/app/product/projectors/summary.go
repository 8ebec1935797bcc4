package projectors

import (
	"context"
	"sync"
	"time"

	"github.com/murkotick/product-projections/internal/app/product/domain"
	"github.com/murkotick/product-projections/internal/models/m_product_summary"
	"github.com/murkotick/product-projections/internal/pkg/committer"
	"github.com/murkotick/product-projections/internal/pkg/events"
	"github.com/murkotick/product-projections/internal/pkg/projection"
)

type summaryRow struct {
	product   *domain.Product
	effective *int64
	last      int64
	updatedAt time.Time
}

// SummaryProjector keeps product_summaries in step with the product inside
// the unit of work that changed it.
type SummaryProjector struct {
	mu      sync.Mutex
	plan    *committer.Plan
	pending map[string]*summaryRow
	order   []string
}

func NewSummaryProjector() projection.Projector {
	return &SummaryProjector{pending: make(map[string]*summaryRow)}
}

func (s *SummaryProjector) ProjectEvents(_ context.Context, target projection.Target, evts []*events.Event) error {
	product, err := productOf(target)
	if err != nil || product == nil {
		return err
	}
	plan, err := planOf(target)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan

	row, ok := s.pending[target.AggregateID]
	if !ok {
		row = &summaryRow{}
		s.pending[target.AggregateID] = row
		s.order = append(s.order, target.AggregateID)
	}
	row.product = product
	for _, e := range evts {
		if e.Sequence > row.last {
			row.last = e.Sequence
		}
		if e.OccurredAt.After(row.updatedAt) {
			row.updatedAt = e.OccurredAt
		}
		if changed, ok := e.Payload.(*domain.EffectivePriceChangedEvent); ok {
			v := changed.EffectivePriceCents
			row.effective = &v
		}
	}
	return nil
}

// CommitChanges stages one upsert per product projected since the last call.
func (s *SummaryProjector) CommitChanges(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, values := range s.valuesLocked() {
		s.plan.Add(m_product_summary.UpsertMutation(values))
	}
	s.pending = make(map[string]*summaryRow)
	s.order = nil
	return nil
}

// valuesLocked builds the pending rows in first-projected order.
func (s *SummaryProjector) valuesLocked() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(s.order))
	for _, id := range s.order {
		row := s.pending[id]
		p := row.product
		out = append(out, m_product_summary.BuildUpsertMap(p.ID(), p.Name(), p.Category(), string(p.Status()),
			p.BasePrice().Cents(), row.effective, row.last, row.updatedAt.UTC()))
	}
	return out
}
