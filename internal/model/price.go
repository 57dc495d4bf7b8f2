package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// priceScale is the fixed rounding scale applied before trimming, matching
// the original enrichment reader's `with_scale_round(11, HalfUp)` plus
// `{:.10}` formatting step.
const priceScale = 10

// FormatPrice renders a decimal price as a stable textual representation:
// fixed decimal, no scientific notation, trailing zeros trimmed only past
// the decimal point, always preserving at least one fractional digit (P6).
//
// Equal decimals must serialize to byte-identical strings, and
// FormatPrice(ParsePrice(FormatPrice(x))) == FormatPrice(x) for any x.
func FormatPrice(d decimal.Decimal) string {
	rounded := d.Round(priceScale)
	s := rounded.StringFixed(priceScale)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s, ""
	if dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	fracPart = strings.TrimRight(fracPart, "0")

	var out strings.Builder
	if neg && (intPart != "0" || fracPart != "") {
		out.WriteByte('-')
	}
	out.WriteString(intPart)
	out.WriteByte('.')
	if fracPart == "" {
		out.WriteByte('0')
	} else {
		out.WriteString(fracPart)
	}
	return out.String()
}

// ParsePrice parses a decimal that may arrive as a JSON string or number.
func ParsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
