package database

import (
	"context"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Range bounds a report. A zero From or To leaves that side open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) apply(q *gorm.DB, column string) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where(column+" < ?", r.To)
	}
	return q
}

// Day covers the calendar day of t in t's location.
func Day(t time.Time) Range {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Range{From: start, To: start.AddDate(0, 0, 1)}
}

type TopProduct struct {
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SalesReport is what the dashboard and the assistant read.
type SalesReport struct {
	TotalRevenue decimal.Decimal       `json:"total_revenue"`
	TotalTax     decimal.Decimal       `json:"total_tax"`
	TotalOrders  int64                 `json:"total_orders"`
	TopSelling   []TopProduct          `json:"top_selling"`
	RecentSales  []models.JournalEntry `json:"recent_sales"`
}

// Report calculates sales within r.
func (j *Journal) Report(ctx context.Context, r Range) (*SalesReport, error) {
	db := j.db.WithContext(ctx)
	var totals struct {
		Revenue decimal.Decimal
		Tax     decimal.Decimal
	}
	report := &SalesReport{TopSelling: []TopProduct{}}

	// 1. Revenue; COALESCE gives 0 instead of NULL when nothing was sold
	err := r.apply(db.Model(&models.JournalEntry{}), "issued_at").
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COALESCE(SUM(tax_amount), 0) AS tax").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	report.TotalRevenue, report.TotalTax = totals.Revenue, totals.Tax

	// 2. Orders
	if err := r.apply(db.Model(&models.JournalEntry{}), "issued_at").Count(&report.TotalOrders).Error; err != nil {
		return nil, err
	}

	// 3. Top 5 best sellers
	err = r.apply(db.Table("journal_lines"), "journal_entries.issued_at").
		Select("journal_lines.description AS product_name, SUM(journal_lines.quantity) AS sold, SUM(journal_lines.line_total) AS revenue").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Group("journal_lines.description").
		Order("sold desc").
		Limit(5).
		Scan(&report.TopSelling).Error
	if err != nil {
		return nil, err
	}

	// 4. Last 10 sales
	report.RecentSales, err = j.Entries(ctx, r, 10)
	if err != nil {
		return nil, err
	}
	return report, nil
}
