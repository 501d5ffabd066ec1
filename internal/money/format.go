package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is the Nicaraguan córdoba sign used on screens and tickets.
const CurrencySymbol = "C$"

// Format renders an amount as "C$ 1,234.50".
func Format(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := CurrencySymbol + " " + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
