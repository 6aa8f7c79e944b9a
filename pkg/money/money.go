package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are carried as int64 minor currency units everywhere inside the
// engine. Decimal shows up only at the edges: parsing config rate tables,
// accepting/formatting amounts on the API, and applying percentage rates.

var minorFactor = decimal.NewFromInt(100)

// FromDecimal converts a major-unit decimal amount (e.g. "1500.50") to
// minor units. Fails if the value carries sub-minor-unit precision.
func FromDecimal(d decimal.Decimal) (int64, error) {
	minor := d.Mul(minorFactor)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-minor-unit precision", d)
	}
	return minor.IntPart(), nil
}

// ToDecimal converts minor units back to a major-unit decimal.
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorFactor)
}

// ApplyRate multiplies a minor-unit amount by a decimal rate, rounding
// half-up to the nearest minor unit.
func ApplyRate(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}

// ParseRate parses a decimal rate string such as "0.015" and rejects
// negative values.
func ParseRate(s string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("rate %q must not be negative", s)
	}
	return rate, nil
}

// Format renders a minor-unit amount as a major-unit string with two
// decimal places, for logs and notifications.
func Format(minor int64) string {
	return ToDecimal(minor).StringFixed(2)
}
