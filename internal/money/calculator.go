// Package money computes job totals, discounts, VAT and balances on decimal amounts.
package money

import (
	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	// DiscountNone means no discount is applied.
	DiscountNone DiscountType = ""
	// DiscountPercentage treats the value as a percentage of the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed treats the value as an absolute amount.
	DiscountFixed DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Line is a quantity priced per unit. Product lines and accessories share it.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Total returns quantity × unit price rounded to the minor unit.
func (l Line) Total() decimal.Decimal {
	return Round(l.Quantity.Mul(l.UnitPrice))
}

// Discount describes the discount applied to a job.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Active reports whether the discount changes the subtotal.
func (d Discount) Active() bool {
	switch d.Type {
	case DiscountPercentage, DiscountFixed:
		return d.Value.IsPositive()
	default:
		return false
	}
}

// VAT holds the tax configuration applied on top of the discounted subtotal.
type VAT struct {
	Enabled bool
	Rate    decimal.Decimal
}

// Input collects everything that contributes to a job total.
type Input struct {
	Lines       []Line
	FittingCost decimal.Decimal
	Accessories []Line
	Discount    Discount
	VAT         VAT
}

// Breakdown itemises a calculation so callers can display every step.
type Breakdown struct {
	LinesTotal       decimal.Decimal `json:"lines_total"`
	FittingCost      decimal.Decimal `json:"fitting_cost"`
	AccessoriesTotal decimal.Decimal `json:"accessories_total"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	Net              decimal.Decimal `json:"net"`
	VATRate          decimal.Decimal `json:"vat_rate"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	Total            decimal.Decimal `json:"total"`
}

// Calculate runs the full pricing pipeline: lines, fitting and accessories,
// then discount, then VAT. A fixed discount larger than the subtotal is
// clamped so the net amount floors at zero before VAT is added.
func Calculate(in Input) Breakdown {
	var b Breakdown
	for _, l := range in.Lines {
		b.LinesTotal = b.LinesTotal.Add(l.Total())
	}
	for _, a := range in.Accessories {
		b.AccessoriesTotal = b.AccessoriesTotal.Add(a.Total())
	}
	b.FittingCost = Round(in.FittingCost)
	b.Subtotal = b.LinesTotal.Add(b.FittingCost).Add(b.AccessoriesTotal)

	b.DiscountAmount = discountAmount(b.Subtotal, in.Discount)
	b.Net = decimal.Max(b.Subtotal.Sub(b.DiscountAmount), decimal.Zero)

	if in.VAT.Enabled && in.VAT.Rate.IsPositive() {
		b.VATRate = in.VAT.Rate
		b.VATAmount = Round(b.Net.Mul(in.VAT.Rate).Div(hundred))
	}
	b.Total = decimal.Max(b.Net.Add(b.VATAmount), decimal.Zero)
	return b
}

// CalculateTotal returns only the final amount of Calculate.
func CalculateTotal(in Input) decimal.Decimal {
	return Calculate(in).Total
}

// Balance returns total minus every payment. Overpayment yields a negative
// balance, which is returned as is.
func Balance(total decimal.Decimal, payments ...decimal.Decimal) decimal.Decimal {
	return total.Sub(Sum(payments...))
}

// Sum adds amounts; the zero value is returned for an empty list.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func discountAmount(subtotal decimal.Decimal, d Discount) decimal.Decimal {
	if !d.Active() || !subtotal.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		pct := decimal.Min(d.Value, hundred)
		amount = Round(subtotal.Mul(pct).Div(hundred))
	case DiscountFixed:
		amount = Round(d.Value)
	}
	return decimal.Min(amount, subtotal)
}
