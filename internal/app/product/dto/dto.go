package dto

import "time"

// ProductSummaryDTO is one row of the product_summaries read model.
type ProductSummaryDTO struct {
	ProductID      string
	Name           string
	Category       string
	Status         string
	BasePriceCents int64
	// EffectivePriceCents is nil until the pricing projection has written it.
	EffectivePriceCents *int64
	// LastSequence is the stream position the row reflects.
	LastSequence int64
	UpdatedAt    time.Time
}

// Price returns the effective price when known, otherwise the base price.
func (d *ProductSummaryDTO) Price() int64 {
	if d.EffectivePriceCents != nil {
		return *d.EffectivePriceCents
	}
	return d.BasePriceCents
}

// ActivityDTO is one row of the product_activity read model.
type ActivityDTO struct {
	ProductID  string
	Sequence   int64
	EventID    string
	EventType  string
	Summary    string
	OccurredAt time.Time
	RecordedAt time.Time
}
