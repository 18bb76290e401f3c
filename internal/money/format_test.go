package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatterFormat(t *testing.T) {
	cases := []struct {
		name string
		f    Formatter
		in   string
		want string
	}{
		{name: "default", f: DefaultFormatter(), in: "1234.5", want: "£1,234.50"},
		{name: "small", f: DefaultFormatter(), in: "0.5", want: "£0.50"},
		{name: "millions", f: DefaultFormatter(), in: "1234567.891", want: "£1,234,567.89"},
		{name: "negative", f: DefaultFormatter(), in: "-19.2", want: "-£19.20"},
		{name: "euro after", f: Formatter{Symbol: "€", Position: SymbolAfterSpace, DecimalSep: ",", ThousandsSep: ".", Decimals: 2}, in: "1234.5", want: "1.234,50 €"},
		{name: "no decimals", f: Formatter{Symbol: "¥", Position: SymbolBefore, ThousandsSep: ",", Decimals: 0}, in: "12345", want: "¥12,345"},
		{name: "before space", f: Formatter{Symbol: "CHF", Position: SymbolBeforeSpace, DecimalSep: ".", ThousandsSep: "'", Decimals: 2}, in: "9999", want: "CHF 9'999.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.f.Format(d(tc.in)))
		})
	}
}

func TestFormatterNegativeZero(t *testing.T) {
	assert.Equal(t, "£0.00", DefaultFormatter().Format(d("-0.001")))
}
