// Package checkout turns the current cart into an invoice on the shop API.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/money"
	"go-pos-terminal/internal/notify"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrInFlight  = errors.New("a checkout is already in progress")
	// ErrClosed means the session ended before anything was submitted.
	ErrClosed = errors.New("checkout is closed")
)

// CartKeptWarning accompanies a sale whose cart moved on (cleared, refilled
// or the session closed) while the invoice was being created.
const CartKeptWarning = "Sale recorded, but the cart changed meanwhile and was left as is"

// Sale is a created invoice. A non-empty Warning means the sale stands but
// the cart was not cleared.
type Sale struct {
	Invoice *models.Invoice `json:"invoice"`
	Warning string          `json:"warning,omitempty"`
}

// Details is what the payment dialog collects.
type Details struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required,oneof=CASH CARD TRANSFER CHECK"`
	Notes         string               `json:"notes" validate:"max=500"`
	CustomerName  string               `json:"customerName" validate:"max=120"`
}

// Submitter creates invoices remotely. *apiclient.Client satisfies it.
type Submitter interface {
	CreateInvoice(ctx context.Context, req models.InvoiceRequest) (*models.Invoice, error)
}

// Journal keeps a local record of each completed sale.
type Journal interface {
	Record(ctx context.Context, entry *models.JournalEntry) error
}

// Printer hands a finished invoice to the receipt printer.
type Printer interface {
	Print(inv *models.Invoice) error
}

type Option func(*Orchestrator)

// WithInvalidator registers a cache that must forget its data after a sale
// (inventory levels, invoice lists).
func WithInvalidator(fn func()) Option {
	return func(o *Orchestrator) { o.invalidators = append(o.invalidators, fn) }
}

func WithJournal(j Journal) Option { return func(o *Orchestrator) { o.journal = j } }
func WithPrinter(p Printer) Option { return func(o *Orchestrator) { o.printer = p } }
func WithOperator(id func(ctx context.Context) uint) Option {
	return func(o *Orchestrator) { o.operator = id }
}
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

type Orchestrator struct {
	store    *cart.Store
	submit   Submitter
	notifier notify.Notifier
	log      logrus.FieldLogger
	validate *validator.Validate

	invalidators []func()
	journal      Journal
	printer      Printer
	operator     func(ctx context.Context) uint
	now          func() time.Time

	mu       sync.Mutex
	inFlight bool
	closed   bool
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, notify.Severity) {}

func New(store *cart.Store, submit Submitter, n notify.Notifier, log logrus.FieldLogger, opts ...Option) *Orchestrator {
	if n == nil {
		n = nopNotifier{}
	}
	o := &Orchestrator{
		store:    store,
		submit:   submit,
		notifier: n,
		log:      log.WithField("module", "checkout"),
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Close refuses new checkouts. One already in flight still journals its
// sale but leaves the cart alone.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

// Checkout submits the cart as it is right now. On failure the cart is left
// exactly as it was. Once the shop API has created the invoice the sale is
// journaled and printed no matter what; the cart is cleared only if it is
// still the one that was submitted.
func (o *Orchestrator) Checkout(ctx context.Context, d Details) (*Sale, error) {
	if err := o.validate.Struct(d); err != nil {
		return nil, fmt.Errorf("invalid payment details: %w", err)
	}

	snap := o.store.Snapshot()
	if snap.Empty() {
		return nil, ErrEmptyCart
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrInFlight
	}
	o.inFlight = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	if strings.TrimSpace(d.CustomerName) == "" {
		d.CustomerName = snap.CustomerName
	}

	issuedAt := o.now()
	totals := money.Calculate(snap)
	req := BuildRequest(snap, totals, d, issuedAt)
	log := o.log.WithFields(logrus.Fields{"invoice_number": req.InvoiceNumber, "lines": len(req.InvoiceItems)})

	inv, err := o.submit.CreateInvoice(ctx, req)
	if err != nil {
		log.WithError(err).Warn("invoice submission failed")
		o.notifier.Notify("Error processing the sale: "+err.Error(), notify.Error)
		return nil, fmt.Errorf("submit invoice: %w", err)
	}
	if inv == nil {
		inv = invoiceFromRequest(req)
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = req.InvoiceNumber
	}
	if len(inv.InvoiceItems) == 0 {
		inv.InvoiceItems = req.InvoiceItems
	}

	for _, fn := range o.invalidators {
		fn()
	}

	sale := &Sale{Invoice: inv}
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed || !o.store.ClearEpoch(snap.Epoch) {
		log.Warn("sale recorded but session moved on; cart left as is")
		sale.Warning = CartKeptWarning
	}

	o.record(ctx, snap, totals, d, inv, issuedAt)
	if o.printer != nil {
		if err := o.printer.Print(inv); err != nil {
			config.LogError(log, "checkout", "Checkout", "print receipt", inv.InvoiceNumber, err)
			o.notifier.Notify("Sale recorded, but the receipt could not be printed", notify.Error)
		}
	}

	log.WithField("total", totals.Total.StringFixed(2)).Info("sale completed")
	if sale.Warning != "" {
		o.notifier.Notify(sale.Warning, notify.Info)
	} else {
		o.notifier.Notify("Sale completed successfully", notify.Success)
	}
	return sale, nil
}

func (o *Orchestrator) record(ctx context.Context, snap cart.Snapshot, t money.Totals, d Details, inv *models.Invoice, at time.Time) {
	if o.journal == nil {
		return
	}
	entry := JournalEntry(snap, t, d, inv, at)
	if o.operator != nil {
		entry.OperatorID = o.operator(ctx)
	}
	if err := o.journal.Record(ctx, entry); err != nil {
		// Journal failures never undo a recorded sale.
		config.LogError(o.log, "checkout", "record", "journal sale", entry.InvoiceNumber, err)
	}
}

// InvoiceNumber follows the INV-<unix millis> scheme.
func InvoiceNumber(at time.Time) string {
	return fmt.Sprintf("INV-%d", at.UnixMilli())
}

// BuildRequest maps a cart snapshot and its totals to the invoice payload.
func BuildRequest(snap cart.Snapshot, t money.Totals, d Details, at time.Time) models.InvoiceRequest {
	items := make([]models.InvoiceItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, models.InvoiceItem{
			Description: it.Product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Product.CostPrice,
			TotalPrice:  money.LineSubtotal(it),
			Product:     &models.ProductLink{ID: it.Product.ID},
		})
	}
	return models.InvoiceRequest{
		InvoiceNumber: InvoiceNumber(at),
		IssueDate:     at.Format("2006-01-02"),
		Subtotal:      t.Subtotal,
		TaxAmount:     t.Tax,
		TotalAmount:   t.Total,
		TaxRate:       money.EffectiveTaxPercent(t),
		Status:        models.InvoicePaid,
		PaymentMethod: d.PaymentMethod,
		Notes:         d.Notes,
		InvoiceItems:  items,
	}
}

// JournalEntry is the local copy of a completed sale.
func JournalEntry(snap cart.Snapshot, t money.Totals, d Details, inv *models.Invoice, at time.Time) *models.JournalEntry {
	entry := &models.JournalEntry{
		RemoteID:      inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  d.CustomerName,
		PaymentMethod: string(d.PaymentMethod),
		Subtotal:      t.Subtotal,
		Discount:      t.Discount,
		TaxAmount:     t.Tax,
		TotalAmount:   t.Total,
		IssuedAt:      at,
	}
	for _, it := range snap.Items {
		entry.Lines = append(entry.Lines, models.JournalLine{
			ProductID:   it.Product.ID,
			Description: it.Product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Product.CostPrice,
			LineTotal:   money.LineSubtotal(it),
		})
	}
	return entry
}

func invoiceFromRequest(req models.InvoiceRequest) *models.Invoice {
	return &models.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     req.IssueDate,
		Subtotal:      req.Subtotal,
		TaxAmount:     req.TaxAmount,
		TotalAmount:   req.TotalAmount,
		TaxRate:       req.TaxRate,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		InvoiceItems:  req.InvoiceItems,
	}
}
