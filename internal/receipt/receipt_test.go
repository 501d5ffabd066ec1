package receipt

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go-pos-terminal/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() *models.Invoice {
	return &models.Invoice{
		InvoiceNumber: "INV-1709994600000",
		IssueDate:     "2024-03-09",
		Subtotal:      decimal.NewFromInt(1250),
		TaxAmount:     decimal.RequireFromString("187.5"),
		TotalAmount:   decimal.RequireFromString("1437.5"),
		PaymentMethod: models.PaymentCash,
		InvoiceItems: []models.InvoiceItem{
			{Description: "Coffee", Quantity: 2, TotalPrice: decimal.NewFromInt(200)},
			{Description: "Extra long product description that will not fit", Quantity: 1, TotalPrice: decimal.NewFromInt(1050)},
		},
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleInvoice(), Header{ShopName: "POS PyME", TaxID: "J0310000000001"})

	assert.Contains(t, out, "Invoice #INV-1709994600000")
	assert.Contains(t, out, "Date: 09/03/2024")
	assert.Contains(t, out, "C$ 1,437.50")
	assert.Contains(t, out, "RUC J0310000000001")
	assert.Contains(t, out, "Thank you for your purchase")
	assert.True(t, strings.HasPrefix(strings.TrimLeft(out, " "), "POS PyME\n"))

	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(l), Width, "line %q overflows the roll", l)
	}
}

func TestRender_TotalsAreRightAligned(t *testing.T) {
	out := Render(sampleInvoice(), Header{ShopName: "Shop"})
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "TOTAL") {
			assert.Len(t, l, Width)
			assert.True(t, strings.HasSuffix(l, "C$ 1,437.50"))
			return
		}
	}
	t.Fatal("no TOTAL line")
}

func TestWriterPrinter(t *testing.T) {
	var buf bytes.Buffer
	log, _ := test.NewNullLogger()
	p := NewWriterPrinter(&buf, Header{ShopName: "Shop"}, log)

	require.NoError(t, p.Print(sampleInvoice()))
	assert.Contains(t, buf.String(), "INV-1709994600000")
}

func TestSpoolPrinter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	log, _ := test.NewNullLogger()
	p, err := NewSpoolPrinter(dir, Header{ShopName: "Shop"}, log)
	require.NoError(t, err)

	require.NoError(t, p.Print(sampleInvoice()))

	data, err := os.ReadFile(filepath.Join(dir, "INV-1709994600000.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Thank you for your purchase")
}

func TestFromJournal(t *testing.T) {
	e := &models.JournalEntry{
		InvoiceNumber: "INV-9",
		PaymentMethod: "CARD",
		TotalAmount:   decimal.NewFromInt(115),
		Lines:         []models.JournalLine{{ProductID: 3, Description: "Rice", Quantity: 1, LineTotal: decimal.NewFromInt(100)}},
	}

	inv := FromJournal(e)

	assert.Equal(t, models.PaymentCard, inv.PaymentMethod)
	require.Len(t, inv.InvoiceItems, 1)
	assert.Equal(t, int64(3), inv.InvoiceItems[0].Product.ID)
	assert.Contains(t, Render(inv, Header{ShopName: "Shop"}), "C$ 115.00")
}
