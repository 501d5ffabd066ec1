package money

import (
	"testing"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pct(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculate_BasicTotals(t *testing.T) {
	s := cart.Snapshot{
		Items: []cart.Item{
			{Product: models.Product{ID: 1, CostPrice: dec("100"), TaxPercentage: pct("15")}, Quantity: 2},
		},
		Discount: decimal.Zero,
		TaxRate:  dec("0.15"),
	}

	got := Calculate(s)

	assertDec(t, "200", got.Subtotal, "subtotal")
	assertDec(t, "0", got.Discount, "discount")
	assertDec(t, "30", got.Tax, "tax")
	assertDec(t, "230", got.Total, "total")
}

func TestCalculate_DiscountLargerThanSubtotalIsClamped(t *testing.T) {
	// taxPercentage is absent, so the cart default applies.
	s := cart.Snapshot{
		Items: []cart.Item{
			{Product: models.Product{ID: 1, CostPrice: dec("50")}, Quantity: 1},
		},
		Discount: dec("999"),
		TaxRate:  dec("0.15"),
	}

	got := Calculate(s)

	assertDec(t, "50", got.Subtotal, "subtotal")
	assertDec(t, "50", got.Discount, "discount")
	assertDec(t, "0", got.TaxableBase, "taxable base")
	assertDec(t, "7.5", got.Tax, "tax")
	assertDec(t, "7.5", got.Total, "total")
}

func TestCalculate_ExplicitZeroPercentOverridesDefault(t *testing.T) {
	s := cart.Snapshot{
		Items: []cart.Item{
			{Product: models.Product{ID: 1, CostPrice: dec("50"), TaxPercentage: pct("0")}, Quantity: 1},
		},
		TaxRate: dec("0.15"),
	}

	got := Calculate(s)

	assertDec(t, "0", got.Tax, "tax")
	assertDec(t, "50", got.Total, "total")
}

func TestCalculate_MixedRatesAndPartialDiscount(t *testing.T) {
	s := cart.Snapshot{
		Items: []cart.Item{
			{Product: models.Product{ID: 1, CostPrice: dec("10.50"), TaxPercentage: pct("15")}, Quantity: 3},
			{Product: models.Product{ID: 2, CostPrice: dec("4")}, Quantity: 5},
		},
		Discount: dec("11.5"),
		TaxRate:  dec("0.10"),
	}

	got := Calculate(s)

	// 31.50 + 20.00
	assertDec(t, "51.5", got.Subtotal, "subtotal")
	assertDec(t, "11.5", got.Discount, "discount")
	assertDec(t, "40", got.TaxableBase, "taxable base")
	// 31.50*0.15 + 20*0.10, not reduced by the discount
	assertDec(t, "6.725", got.Tax, "tax")
	assertDec(t, "46.725", got.Total, "total")
}

func TestCalculate_EmptyCart(t *testing.T) {
	got := Calculate(cart.Snapshot{Discount: dec("5"), TaxRate: dec("0.15")})

	assertDec(t, "0", got.Subtotal, "subtotal")
	assertDec(t, "0", got.Discount, "discount")
	assertDec(t, "0", got.Total, "total")
}

func TestCalculate_IsPure(t *testing.T) {
	s := cart.Snapshot{
		Items:   []cart.Item{{Product: models.Product{ID: 1, CostPrice: dec("3.33")}, Quantity: 3}},
		TaxRate: dec("0.15"),
	}
	first := Calculate(s)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Calculate(s))
	}
}

func TestEffectiveTaxPercent(t *testing.T) {
	t.Run("regular base", func(t *testing.T) {
		got := EffectiveTaxPercent(Totals{TaxableBase: dec("200"), Tax: dec("30")})
		assertDec(t, "15", got, "rate")
	})
	t.Run("rounds to two places", func(t *testing.T) {
		got := EffectiveTaxPercent(Totals{TaxableBase: dec("3"), Tax: dec("1")})
		assertDec(t, "33.33", got, "rate")
	})
	t.Run("zero base divides by one", func(t *testing.T) {
		got := EffectiveTaxPercent(Totals{TaxableBase: decimal.Zero, Tax: dec("7.5")})
		assertDec(t, "750", got, "rate")
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "C$ 0.00", Format(decimal.Zero))
	assert.Equal(t, "C$ 7.50", Format(dec("7.5")))
	assert.Equal(t, "C$ 1,234.50", Format(dec("1234.5")))
	assert.Equal(t, "C$ 1,000,000.00", Format(dec("1000000")))
	assert.Equal(t, "-C$ 12.35", Format(dec("-12.345")))
}
