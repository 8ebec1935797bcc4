package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (cents). Integer cents keep
// event payloads exact when they cross JSON.
type Money int64

// Cents wraps a cent amount.
func Cents(n int64) Money {
	return Money(n)
}

// ParseMoney parses a decimal string with at most two fraction digits,
// e.g. "19.99" or "20".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 {
		return 0, fmt.Errorf("invalid money format: %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money format: %q", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money format: %q", s)
	}
	m := units*100 + cents
	if neg {
		m = -m
	}
	return Money(m), nil
}

func (m Money) Cents() int64 {
	return int64(m)
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsNegative() bool { return m < 0 }
func (m Money) IsPositive() bool { return m > 0 }

func (m Money) Sub(other Money) Money {
	return m - other
}

// PortionBps returns bps basis points of m, rounded half away from zero.
func (m Money) PortionBps(bps int64) Money {
	p := int64(m) * bps
	if p >= 0 {
		return Money((p + 5000) / 10000)
	}
	return Money((p - 5000) / 10000)
}

// String renders m with two decimals, e.g. "19.99".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
