package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The shop API and the React client both speak plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Operator - The cashier or admin logged into this terminal
type Operator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Category as served by the shop API
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product - Catalog entry owned by the shop API. The cart only reads it.
type Product struct {
	ID            int64            `json:"id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Brand         string           `json:"brand,omitempty"`
	BarCode       string           `json:"barCode,omitempty"`
	MeasureUnit   string           `json:"measureUnit,omitempty"`
	CostPrice     decimal.Decimal  `json:"costPrice"`
	TaxPercentage *decimal.Decimal `json:"taxPercentage,omitempty"` // nil means "use the cart default"
	IsActive      bool             `json:"isActive"`
	Categories    []Category       `json:"productCategories,omitempty"`
}

// InventoryLevel - One row of GET /api/inventories
type InventoryLevel struct {
	ID        int64   `json:"id"`
	Quantity  int     `json:"quantity"`
	MinStock  int     `json:"minStock"`
	MaxStock  int     `json:"maxStock"`
	Location  string  `json:"location,omitempty"`
	Product   Product `json:"product"`
	ProductID int64   `json:"productId,omitempty"`
}

// ProductRef returns the product id whichever shape the API used.
func (l InventoryLevel) ProductRef() int64 {
	if l.Product.ID != 0 {
		return l.Product.ID
	}
	return l.ProductID
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCheck    PaymentMethod = "CHECK"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceIssued    InvoiceStatus = "ISSUED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// ProductLink is the {id} reference the invoice endpoint expects on each line
type ProductLink struct {
	ID int64 `json:"id"`
}

// InvoiceItem - A line of an invoice, request or response
type InvoiceItem struct {
	ID          int64           `json:"id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Product     *ProductLink    `json:"product,omitempty"`
}

// InvoiceRequest - Body of POST /api/invoices
type InvoiceRequest struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	IssueDate     string          `json:"issueDate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Status        InvoiceStatus   `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	InvoiceItems  []InvoiceItem   `json:"invoiceItems"`
}

// Invoice - What the shop API hands back once the sale is recorded
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	IssueDate     string          `json:"issueDate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Status        InvoiceStatus   `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
	InvoiceItems  []InvoiceItem   `json:"invoiceItems"`
}

// JournalEntry - Local copy of an issued invoice, kept for reprints and reports
type JournalEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	RemoteID      int64           `gorm:"index" json:"remote_id"`
	InvoiceNumber string          `gorm:"uniqueIndex;size:40" json:"invoice_number"`
	OperatorID    uint            `json:"operator_id"`
	CustomerName  string          `gorm:"size:120" json:"customer_name"`
	PaymentMethod string          `gorm:"size:20" json:"payment_method"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,2)" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(14,2)" json:"discount"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(14,2)" json:"tax_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2)" json:"total_amount"`
	IssuedAt      time.Time       `gorm:"index" json:"issued_at"`
	Lines         []JournalLine   `gorm:"foreignKey:EntryID" json:"lines"`
}

// JournalLine - Snapshot of a cart line at the time of the sale
type JournalLine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	EntryID     uint            `gorm:"index" json:"entry_id"`
	ProductID   int64           `json:"product_id"`
	Description string          `gorm:"size:200" json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2)" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(14,2)" json:"line_total"`
}
