package database

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testDB(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
}

func newJournal(t *testing.T) (*Journal, *Operators) {
	t.Helper()
	log, _ := test.NewNullLogger()
	db, err := Connect("sqlite", testDB(t), log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewJournal(db), NewOperators(db)
}

func entry(number string, at time.Time, lines ...models.JournalLine) *models.JournalEntry {
	e := &models.JournalEntry{InvoiceNumber: number, IssuedAt: at, PaymentMethod: "CASH", Lines: lines}
	for _, l := range lines {
		e.Subtotal = e.Subtotal.Add(l.LineTotal)
	}
	e.TaxAmount = e.Subtotal.Mul(decimal.RequireFromString("0.15"))
	e.TotalAmount = e.Subtotal.Add(e.TaxAmount)
	return e
}

func jline(name string, qty int, price int64) models.JournalLine {
	p := decimal.NewFromInt(price)
	return models.JournalLine{Description: name, Quantity: qty, UnitPrice: p, LineTotal: p.Mul(decimal.NewFromInt(int64(qty)))}
}

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := Connect("oracle", "x", log)
	assert.Error(t, err)
	_, err = Connect("sqlite", "", log)
	assert.Error(t, err)
}

func TestJournal_RecordAndFind(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, entry("INV-1", at, jline("Coffee", 2, 100), jline("Tea", 1, 50))))

	got, err := j.FindByNumber(ctx, "INV-1")
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("287.5")))

	_, err = j.FindByNumber(ctx, "INV-404")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, j.Record(ctx, entry("INV-1", at, jline("Coffee", 1, 100))), "invoice numbers are unique")
}

func TestJournal_Report(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, entry("INV-1", day.Add(9*time.Hour), jline("Coffee", 2, 100))))
	require.NoError(t, j.Record(ctx, entry("INV-2", day.Add(11*time.Hour), jline("Coffee", 1, 100), jline("Tea", 4, 20))))
	require.NoError(t, j.Record(ctx, entry("INV-3", day.Add(-time.Hour), jline("Tea", 10, 20))))

	report, err := j.Report(ctx, Day(day))
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.TotalOrders)
	assert.True(t, report.TotalRevenue.Equal(decimal.RequireFromString("437")), report.TotalRevenue.String())
	require.Len(t, report.TopSelling, 2)
	assert.Equal(t, "Tea", report.TopSelling[0].ProductName)
	assert.Equal(t, 4, report.TopSelling[0].Sold)
	assert.Equal(t, "Coffee", report.TopSelling[1].ProductName)
	require.Len(t, report.RecentSales, 2)
	assert.Equal(t, "INV-2", report.RecentSales[0].InvoiceNumber)

	all, err := j.Report(ctx, Range{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalOrders)
}

func TestJournal_EmptyReport(t *testing.T) {
	j, _ := newJournal(t)
	report, err := j.Report(context.Background(), Range{})
	require.NoError(t, err)
	assert.True(t, report.TotalRevenue.IsZero())
	assert.Zero(t, report.TotalOrders)
	assert.Empty(t, report.TopSelling)
}

func TestOperators(t *testing.T) {
	_, ops := newJournal(t)
	ctx := context.Background()

	op, err := ops.Create(ctx, "ana", "s3cret", "superuser")
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, op.Role)
	assert.NotEqual(t, "s3cret", op.PasswordHash)

	_, err = ops.Create(ctx, "ana", "other", RoleAdmin)
	assert.ErrorIs(t, err, ErrOperatorExists)

	got, err := ops.Verify(ctx, "ana", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)

	_, err = ops.Verify(ctx, "ana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = ops.Verify(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	n, err := ops.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExportSalesXLSX(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	entries := []models.JournalEntry{*entry("INV-1", at, jline("Coffee", 2, 100))}

	require.NoError(t, ExportSalesXLSX(&buf, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(salesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, salesHeadings, rows[0])
	assert.Equal(t, "INV-1", rows[1][0])
	assert.Equal(t, "230", rows[1][7])
}
