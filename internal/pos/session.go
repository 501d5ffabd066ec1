// Package pos wires one terminal session: the cart, its stock oracle, the
// reconciliation loop and checkout.
package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/checkout"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/money"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/reconcile"
	"go-pos-terminal/internal/stock"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrStockLoading is returned for stock-gated actions before the first
	// inventory snapshot arrives.
	ErrStockLoading = errors.New("stock is still loading, try again shortly")
	ErrNoInvoice    = errors.New("no invoice issued in this session yet")
	ErrClosed       = errors.New("session closed")
)

// ProductLookup resolves catalog entries. *catalog.Products satisfies it.
type ProductLookup interface {
	ByID(ctx context.Context, id int64) (models.Product, error)
}

type Settings struct {
	DefaultTaxRate    decimal.Decimal
	StockStaleAfter   time.Duration
	ReconcileDebounce time.Duration
}

type Deps struct {
	Inventory stock.Fetcher
	Mirror    stock.Mirror
	Submitter checkout.Submitter
	Products  ProductLookup
	Notifier  notify.Notifier
	Journal   checkout.Journal
	Printer   checkout.Printer
	// Invalidators run after every completed sale.
	Invalidators []func()
}

// View is what the cart screen renders.
type View struct {
	Cart   cart.Snapshot `json:"cart"`
	Totals money.Totals  `json:"totals"`
}

type Session struct {
	Store      *cart.Store
	Stock      *stock.Oracle
	Controller *reconcile.Controller
	Checkout   *checkout.Orchestrator

	products ProductLookup
	log      logrus.FieldLogger

	mu      sync.Mutex
	last    *models.Invoice
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

type operatorKey struct{}

// WithOperator tags ctx with the operator making the sale.
func WithOperator(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, operatorKey{}, id)
}

func operatorFrom(ctx context.Context) uint {
	id, _ := ctx.Value(operatorKey{}).(uint)
	return id
}

func NewSession(s Settings, d Deps, log logrus.FieldLogger) *Session {
	stockOpts := []stock.Option{stock.WithLogger(log)}
	if s.StockStaleAfter > 0 {
		stockOpts = append(stockOpts, stock.WithStaleAfter(s.StockStaleAfter))
	}
	if d.Mirror != nil {
		stockOpts = append(stockOpts, stock.WithMirror(d.Mirror))
	}
	oracle := stock.NewOracle(d.Inventory, stockOpts...)
	store := cart.NewStore(s.DefaultTaxRate)

	opts := []checkout.Option{
		checkout.WithInvalidator(oracle.Invalidate),
		checkout.WithOperator(operatorFrom),
	}
	for _, fn := range d.Invalidators {
		opts = append(opts, checkout.WithInvalidator(fn))
	}
	if d.Journal != nil {
		opts = append(opts, checkout.WithJournal(d.Journal))
	}
	if d.Printer != nil {
		opts = append(opts, checkout.WithPrinter(d.Printer))
	}

	debounce := s.ReconcileDebounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Session{
		Store:      store,
		Stock:      oracle,
		Controller: reconcile.NewController(store, oracle, d.Notifier, debounce, log),
		Checkout:   checkout.New(store, d.Submitter, d.Notifier, log, opts...),
		products:   d.Products,
		log:        log.WithField("module", "pos"),
	}
}

// Start launches the stock poller and the reconciliation loop.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.Stock.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.Controller.Run(ctx)
	}()
	s.log.Info("session started")
}

// Close stops the background loops. Responses still in flight are dropped
// without touching the cart.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	s.Checkout.Close()
	s.Stock.Close()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info("session closed")
}

func (s *Session) View() View {
	snap := s.Store.Snapshot()
	return View{Cart: snap, Totals: money.Calculate(snap)}
}

// AddProduct adds one unit of productID, capped by the known stock.
func (s *Session) AddProduct(ctx context.Context, productID int64) (cart.Result, error) {
	p, err := s.products.ByID(ctx, productID)
	if err != nil {
		return cart.Result{}, err
	}
	avail, err := s.Stock.Available(productID)
	if err != nil {
		return cart.Result{}, err
	}
	if !avail.Known {
		return cart.Result{}, ErrStockLoading
	}
	return s.Store.AddProduct(p, cart.Max(avail.Quantity)), nil
}

// UpdateQuantity sets a line's quantity. Lowering it never needs stock data;
// raising it does.
func (s *Session) UpdateQuantity(productID int64, qty int) (cart.Result, error) {
	current, _ := s.Store.Snapshot().Find(productID)
	if qty <= current.Quantity {
		return s.Store.UpdateQuantity(productID, qty, nil), nil
	}
	avail, err := s.Stock.Available(productID)
	if err != nil {
		return cart.Result{}, err
	}
	if !avail.Known {
		return cart.Result{}, ErrStockLoading
	}
	return s.Store.UpdateQuantity(productID, qty, cart.Max(avail.Quantity)), nil
}

// Complete runs checkout and remembers the invoice for reprinting, including
// one whose cart moved on while it was being created.
func (s *Session) Complete(ctx context.Context, d checkout.Details) (*checkout.Sale, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	sale, err := s.Checkout.Checkout(ctx, d)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.last = sale.Invoice
	}
	s.mu.Unlock()
	return sale, nil
}

func (s *Session) LastInvoice() (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, ErrNoInvoice
	}
	return s.last, nil
}
