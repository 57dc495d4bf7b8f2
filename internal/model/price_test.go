package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"integer", "5", "5.0"},
		{"trims trailing zeros", "1.50000000000", "1.5"},
		{"keeps one fractional digit", "3.00000000000", "3.0"},
		{"zero", "0", "0.0"},
		{"negative", "-2.34", "-2.34"},
		{"negative rounds to zero", "-0.00000000001", "0.0"},
		{"many decimals rounds", "0.123456789012345", "0.123456789"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, FormatPrice(d))
		})
	}
}

func TestFormatPriceIdempotent(t *testing.T) {
	inputs := []string{"123.456", "0", "-9.9", "1000000.000001"}
	for _, in := range inputs {
		d, err := decimal.NewFromString(in)
		require.NoError(t, err)

		first := FormatPrice(d)
		reparsed, err := ParsePrice(first)
		require.NoError(t, err)
		second := FormatPrice(reparsed)

		require.Equal(t, first, second)
	}
}
