package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func scenarioInput() Input {
	return Input{
		Lines:       []Line{{Quantity: d("10"), UnitPrice: d("20")}},
		FittingCost: d("50"),
		Accessories: []Line{{Quantity: d("2"), UnitPrice: d("5")}},
		Discount:    Discount{Type: DiscountPercentage, Value: d("10")},
		VAT:         VAT{Enabled: true, Rate: d("20")},
	}
}

func TestCalculateScenario(t *testing.T) {
	b := Calculate(scenarioInput())

	require.True(t, b.Subtotal.Equal(d("260")), "subtotal %s", b.Subtotal)
	require.True(t, b.DiscountAmount.Equal(d("26")), "discount %s", b.DiscountAmount)
	require.True(t, b.Net.Equal(d("234")), "net %s", b.Net)
	require.True(t, b.VATAmount.Equal(d("46.8")), "vat %s", b.VATAmount)
	require.Equal(t, "280.80", b.Total.StringFixed(2))
}

func TestBalanceAfterPayments(t *testing.T) {
	total := CalculateTotal(scenarioInput())
	balance := Balance(total, d("100"), d("80.80"))
	require.Equal(t, "100.00", balance.StringFixed(2))

	over := Balance(total, d("300"))
	require.True(t, over.IsNegative())
	require.Equal(t, "-19.20", over.StringFixed(2))
}

func TestBalanceRecomputedAfterDelete(t *testing.T) {
	total := CalculateTotal(scenarioInput())
	payments := []decimal.Decimal{d("100"), d("80.80"), d("20")}
	require.Equal(t, "80.00", Balance(total, payments...).StringFixed(2))

	payments = payments[:2]
	require.Equal(t, "100.00", Balance(total, payments...).StringFixed(2))
}

func TestNoDiscountNoVATIsPlainSum(t *testing.T) {
	in := Input{
		Lines: []Line{
			{Quantity: d("3.5"), UnitPrice: d("12.99")},
			{Quantity: d("1"), UnitPrice: d("0.10")},
		},
		FittingCost: d("0.20"),
	}
	// 45.465 rounds to 45.47 on the line.
	require.Equal(t, "45.77", CalculateTotal(in).StringFixed(2))
}

func TestVATAppliedToNet(t *testing.T) {
	cases := []struct {
		name string
		rate string
		net  string
		want string
	}{
		{name: "standard", rate: "20", net: "99.99", want: "119.99"},
		{name: "reduced", rate: "5", net: "10.10", want: "10.61"},
		{name: "zero", rate: "0", net: "10.00", want: "10.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Input{
				Lines: []Line{{Quantity: decimal.NewFromInt(1), UnitPrice: d(tc.net)}},
				VAT:   VAT{Enabled: true, Rate: d(tc.rate)},
			}
			got := CalculateTotal(in)
			want := d(tc.net).Mul(decimal.NewFromInt(1).Add(d(tc.rate).Div(hundred)))
			assert.Equal(t, tc.want, got.StringFixed(2))
			assert.True(t, got.Sub(want).Abs().LessThanOrEqual(d("0.01")))
		})
	}
}

func TestFixedDiscountClampedBeforeVAT(t *testing.T) {
	in := Input{
		Lines:    []Line{{Quantity: decimal.NewFromInt(1), UnitPrice: d("40")}},
		Discount: Discount{Type: DiscountFixed, Value: d("75")},
		VAT:      VAT{Enabled: true, Rate: d("20")},
	}
	b := Calculate(in)
	assert.True(t, b.DiscountAmount.Equal(d("40")))
	assert.True(t, b.Net.IsZero())
	assert.True(t, b.VATAmount.IsZero())
	assert.True(t, b.Total.IsZero())
}

func TestPercentageDiscountCappedAtHundred(t *testing.T) {
	in := Input{
		Lines:    []Line{{Quantity: decimal.NewFromInt(2), UnitPrice: d("10")}},
		Discount: Discount{Type: DiscountPercentage, Value: d("150")},
	}
	require.True(t, CalculateTotal(in).IsZero())
}

func TestInactiveDiscountIgnored(t *testing.T) {
	in := Input{
		Lines:    []Line{{Quantity: decimal.NewFromInt(1), UnitPrice: d("10")}},
		Discount: Discount{Type: DiscountFixed, Value: d("-5")},
	}
	require.Equal(t, "10.00", CalculateTotal(in).StringFixed(2))

	in.Discount = Discount{Type: "bogus", Value: d("5")}
	require.Equal(t, "10.00", CalculateTotal(in).StringFixed(2))
}

func TestSumEmpty(t *testing.T) {
	require.True(t, Sum().IsZero())
}

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int64(28080), ToMinor(d("280.80")))
	require.Equal(t, int64(1), ToMinor(d("0.005")))
	require.True(t, FromMinor(28080).Equal(d("280.8")))

	amount, err := Parse(" 1,250.50 ")
	require.NoError(t, err)
	require.True(t, amount.Equal(d("1250.5")))

	_, err = Parse("twelve")
	require.Error(t, err)
}
