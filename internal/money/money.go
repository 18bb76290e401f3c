package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept for stored amounts.
const Places = 2

// Round rounds an amount to the minor currency unit, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Exact reports whether d fits in Places decimals without rounding.
func Exact(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Places))
}

// ToMinor converts an amount into integer minor units (pence, cents).
func ToMinor(d decimal.Decimal) int64 {
	return Round(d).Shift(Places).IntPart()
}

// FromMinor converts integer minor units back into a decimal amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -Places)
}

// Parse reads a user supplied amount such as "12.50" or "1,250.00".
// Thousands separators are dropped before parsing.
func Parse(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", raw, err)
	}
	return d, nil
}
