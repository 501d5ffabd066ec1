package database

import (
	"fmt"
	"io"

	"go-pos-terminal/internal/models"

	"github.com/xuri/excelize/v2"
)

const salesSheet = "Sales"

var salesHeadings = []string{"InvoiceNumber", "IssuedAt", "Customer", "Payment", "Subtotal", "Discount", "Tax", "Total"}

// ExportSalesXLSX writes entries as a one-sheet workbook.
func ExportSalesXLSX(w io.Writer, entries []models.JournalEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return err
	}

	// Add headers
	col := 'A'
	for _, h := range salesHeadings {
		if err := f.SetCellValue(salesSheet, string(col)+"1", h); err != nil {
			return err
		}
		col++
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(salesSheet, "A1", string(col-1)+"1", bold); err != nil {
		return err
	}

	// Add data
	for i, e := range entries {
		row := []interface{}{
			e.InvoiceNumber,
			e.IssuedAt.Format("2006-01-02 15:04"),
			e.CustomerName,
			e.PaymentMethod,
			e.Subtotal.InexactFloat64(),
			e.Discount.InexactFloat64(),
			e.TaxAmount.InexactFloat64(),
			e.TotalAmount.InexactFloat64(),
		}
		if err := f.SetSheetRow(salesSheet, "A"+fmt.Sprint(i+2), &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
