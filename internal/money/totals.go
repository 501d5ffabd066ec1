// Package money derives sale totals from a cart snapshot.
package money

import (
	"go-pos-terminal/internal/cart"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is derived from a cart on demand and never stored.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	TaxableBase decimal.Decimal `json:"taxableBase"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// LineSubtotal is unit price times quantity.
func LineSubtotal(it cart.Item) decimal.Decimal {
	return it.Product.CostPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// EffectiveRate is the product's own tax percentage as a fraction, or the
// cart default when the product has none.
func EffectiveRate(it cart.Item, defaultRate decimal.Decimal) decimal.Decimal {
	if it.Product.TaxPercentage != nil {
		return it.Product.TaxPercentage.Div(hundred)
	}
	return defaultRate
}

// Calculate returns the totals of s.
//
// Tax is charged per line on the full line subtotal; the global discount only
// lowers the taxable base that the tax is added to.
func Calculate(s cart.Snapshot) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, it := range s.Items {
		line := LineSubtotal(it)
		subtotal = subtotal.Add(line)
		tax = tax.Add(line.Mul(EffectiveRate(it, s.TaxRate)))
	}

	discount := decimal.Min(s.Discount, subtotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	taxable := decimal.Max(subtotal.Sub(discount), decimal.Zero)

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxableBase: taxable,
		Tax:         tax,
		Total:       taxable.Add(tax),
	}
}

// EffectiveTaxPercent is the overall tax rate reported on the invoice:
// tax / taxable base * 100, rounded to 2 places. A zero base is replaced by 1.
func EffectiveTaxPercent(t Totals) decimal.Decimal {
	base := t.TaxableBase
	if !base.IsPositive() {
		base = decimal.NewFromInt(1)
	}
	return t.Tax.Div(base).Mul(hundred).Round(2)
}
