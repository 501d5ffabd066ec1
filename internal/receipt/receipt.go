// Package receipt lays out invoices as 80mm thermal printer tickets.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/money"
)

// Width is the number of characters per line on an 80mm roll (font A).
const Width = 42

const (
	qtyCol   = 5
	totalCol = 14
)

// Header is printed at the top of every ticket.
type Header struct {
	ShopName string
	Address  string
	Phone    string
	TaxID    string
}

// Render returns the ticket for inv as plain text.
func Render(inv *models.Invoice, h Header) string {
	var b strings.Builder
	rule := strings.Repeat("-", Width)

	line := func(s string) { b.WriteString(s + "\n") }

	line(center(h.ShopName))
	for _, extra := range []string{h.Address, h.Phone} {
		if extra != "" {
			line(center(extra))
		}
	}
	if h.TaxID != "" {
		line(center("RUC " + h.TaxID))
	}
	line(rule)
	line("Invoice #" + inv.InvoiceNumber)
	line("Date: " + issuedAt(inv))
	line(rule)
	line(columns("Description", "Qty", "Total"))
	for _, it := range inv.InvoiceItems {
		desc := it.Description
		descCol := Width - qtyCol - totalCol
		for utf8.RuneCountInString(desc) > descCol-1 {
			head, rest := splitAt(desc, descCol-1)
			line(head)
			desc = rest
		}
		line(columns(desc, fmt.Sprint(it.Quantity), money.Format(it.TotalPrice)))
	}
	line(rule)
	line(pair("Subtotal", money.Format(inv.Subtotal)))
	line(pair("Taxes", money.Format(inv.TaxAmount)))
	line(pair("TOTAL", money.Format(inv.TotalAmount)))
	line(pair("Payment", string(inv.PaymentMethod)))
	if inv.Notes != "" {
		line(rule)
		line(inv.Notes)
	}
	line("")
	line(center("Thank you for your purchase"))
	return b.String()
}

func issuedAt(inv *models.Invoice) string {
	if inv.CreatedAt != nil {
		return inv.CreatedAt.Local().Format("02/01/2006 15:04")
	}
	if t, err := time.Parse("2006-01-02", inv.IssueDate); err == nil {
		return t.Format("02/01/2006")
	}
	return inv.IssueDate
}

func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= Width {
		return s
	}
	return strings.Repeat(" ", (Width-n)/2) + s
}

func pair(label, value string) string {
	gap := Width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value
}

func columns(desc, qty, total string) string {
	descCol := Width - qtyCol - totalCol
	return padRight(desc, descCol) + padLeft(qty, qtyCol) + padLeft(total, totalCol)
}

func padRight(s string, n int) string {
	if k := utf8.RuneCountInString(s); k < n {
		return s + strings.Repeat(" ", n-k)
	}
	return s
}

func padLeft(s string, n int) string {
	if k := utf8.RuneCountInString(s); k < n {
		return strings.Repeat(" ", n-k) + s
	}
	return s
}

func splitAt(s string, n int) (string, string) {
	r := []rune(s)
	return string(r[:n]), string(r[n:])
}

// FromJournal rebuilds enough of an invoice from a journal entry to reprint it.
func FromJournal(e *models.JournalEntry) *models.Invoice {
	inv := &models.Invoice{
		ID:            e.RemoteID,
		InvoiceNumber: e.InvoiceNumber,
		IssueDate:     e.IssuedAt.Format("2006-01-02"),
		Subtotal:      e.Subtotal,
		TaxAmount:     e.TaxAmount,
		TotalAmount:   e.TotalAmount,
		Status:        models.InvoicePaid,
		PaymentMethod: models.PaymentMethod(e.PaymentMethod),
	}
	issued := e.IssuedAt
	inv.CreatedAt = &issued
	for _, l := range e.Lines {
		inv.InvoiceItems = append(inv.InvoiceItems, models.InvoiceItem{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TotalPrice:  l.LineTotal,
			Product:     &models.ProductLink{ID: l.ProductID},
		})
	}
	return inv
}
