package domain

import (
	"fmt"
	"math"
	"time"
)

// MaxDiscountBps is a 100% discount.
const MaxDiscountBps = 10000

// Discount is a percentage off the base price for a validity window.
// It is immutable once created.
type Discount struct {
	bps       int64
	startDate time.Time
	endDate   time.Time
}

// NewDiscount creates a discount from a 0-100 percentage, stored in basis points.
func NewDiscount(percentage float64, startDate, endDate time.Time) (*Discount, error) {
	if percentage < 0 || percentage > 100 {
		return nil, ErrInvalidDiscountPercentage
	}
	return NewDiscountBps(int64(math.Round(percentage*100)), startDate, endDate)
}

// NewDiscountBps creates a discount of bps basis points (2000 is 20%).
func NewDiscountBps(bps int64, startDate, endDate time.Time) (*Discount, error) {
	if bps < 0 || bps > MaxDiscountBps {
		return nil, ErrInvalidDiscountPercentage
	}
	if !endDate.After(startDate) {
		return nil, ErrInvalidDiscountPeriod
	}
	return &Discount{bps: bps, startDate: startDate.UTC(), endDate: endDate.UTC()}, nil
}

// IsValidAt reports whether now is within [start, end).
func (d *Discount) IsValidAt(now time.Time) bool {
	return !now.Before(d.startDate) && now.Before(d.endDate)
}

func (d *Discount) Bps() int64 {
	return d.bps
}

// Percentage returns the discount on a 0-100 scale.
func (d *Discount) Percentage() float64 {
	return float64(d.bps) / 100
}

func (d *Discount) StartDate() time.Time {
	return d.startDate
}

func (d *Discount) EndDate() time.Time {
	return d.endDate
}

// AmountOff returns how much the discount takes off price.
func (d *Discount) AmountOff(price Money) Money {
	return price.PortionBps(d.bps)
}

// ApplyTo returns price after the discount.
func (d *Discount) ApplyTo(price Money) Money {
	return price.Sub(d.AmountOff(price))
}

func (d *Discount) String() string {
	return fmt.Sprintf("%.2f%% off (valid from %s to %s)",
		d.Percentage(),
		d.startDate.Format("2006-01-02"),
		d.endDate.Format("2006-01-02"))
}
