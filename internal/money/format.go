package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SymbolPosition places the currency symbol around the amount.
type SymbolPosition string

const (
	SymbolBefore      SymbolPosition = "before"
	SymbolAfter       SymbolPosition = "after"
	SymbolBeforeSpace SymbolPosition = "before_space"
	SymbolAfterSpace  SymbolPosition = "after_space"
)

// Formatter renders amounts for people: symbol, separators and decimals.
type Formatter struct {
	Symbol       string
	Position     SymbolPosition
	DecimalSep   string
	ThousandsSep string
	Decimals     int32
}

// DefaultFormatter renders pounds sterling, e.g. £1,234.50.
func DefaultFormatter() Formatter {
	return Formatter{Symbol: "£", Position: SymbolBefore, DecimalSep: ".", ThousandsSep: ",", Decimals: 2}
}

// Format renders d with the configured symbol and separators.
func (f Formatter) Format(d decimal.Decimal) string {
	number := f.Number(d)
	negative := strings.HasPrefix(number, "-")
	number = strings.TrimPrefix(number, "-")

	var out string
	switch f.Position {
	case SymbolAfter:
		out = number + f.Symbol
	case SymbolAfterSpace:
		out = number + " " + f.Symbol
	case SymbolBeforeSpace:
		out = f.Symbol + " " + number
	default:
		out = f.Symbol + number
	}
	if negative {
		return "-" + out
	}
	return out
}

// Number renders d without a currency symbol.
func (f Formatter) Number(d decimal.Decimal) string {
	decimals := f.Decimals
	if decimals < 0 {
		decimals = 0
	}
	decSep := f.DecimalSep
	if decSep == "" {
		decSep = "."
	}

	fixed := d.StringFixed(decimals)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	intPart = groupThousands(intPart, f.ThousandsSep)

	out := intPart
	if decimals > 0 {
		out += decSep + fracPart
	}
	if negative && strings.Trim(out, "0"+decSep+f.ThousandsSep) != "" {
		return "-" + out
	}
	return out
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
