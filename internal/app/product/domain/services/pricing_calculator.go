package services

import (
	"time"

	"github.com/murkotick/product-projections/internal/app/product/domain"
)

// PricingCalculator is a domain service for price rules that read more than
// one aggregate field. The pricing projection uses it to decide whether a
// change moved the price customers pay.
type PricingCalculator struct{}

// NewPricingCalculator creates a new PricingCalculator instance.
func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{}
}

// CalculateEffectivePrice returns basePrice minus discount when the discount
// is valid at now.
func (pc *PricingCalculator) CalculateEffectivePrice(basePrice domain.Money, discount *domain.Discount, now time.Time) domain.Money {
	if discount == nil || !discount.IsValidAt(now) {
		return basePrice
	}
	return discount.ApplyTo(basePrice)
}

// CalculateSavings returns how much the discount takes off at now.
func (pc *PricingCalculator) CalculateSavings(basePrice domain.Money, discount *domain.Discount, now time.Time) domain.Money {
	if discount == nil || !discount.IsValidAt(now) {
		return 0
	}
	return discount.AmountOff(basePrice)
}

// CalculateSavingsPercentage returns the share saved, between 0.0 and 1.0.
func (pc *PricingCalculator) CalculateSavingsPercentage(discount *domain.Discount, now time.Time) float64 {
	if discount == nil || !discount.IsValidAt(now) {
		return 0.0
	}
	return discount.Percentage() / 100.0
}

// EffectiveDiscountBps returns the discount in basis points that applies at
// now, or zero.
func (pc *PricingCalculator) EffectiveDiscountBps(discount *domain.Discount, now time.Time) int64 {
	if discount == nil || !discount.IsValidAt(now) {
		return 0
	}
	return discount.Bps()
}
