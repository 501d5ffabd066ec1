package pos

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-pos-terminal/internal/checkout"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/stock"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	mu     sync.Mutex
	levels map[int64]int
	calls  int
}

func (f *fakeInventory) set(id int64, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[id] = qty
}

func (f *fakeInventory) Inventories(context.Context) ([]models.InventoryLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []models.InventoryLevel
	for id, q := range f.levels {
		out = append(out, models.InventoryLevel{ProductID: id, Quantity: q})
	}
	return out, nil
}

type catalogFake map[int64]models.Product

func (c catalogFake) ByID(_ context.Context, id int64) (models.Product, error) {
	return c[id], nil
}

type okSubmitter struct{}

func (okSubmitter) CreateInvoice(_ context.Context, req models.InvoiceRequest) (*models.Invoice, error) {
	return &models.Invoice{ID: 1, InvoiceNumber: req.InvoiceNumber, TotalAmount: req.TotalAmount}, nil
}

type submitterFunc func(ctx context.Context, req models.InvoiceRequest) (*models.Invoice, error)

func (f submitterFunc) CreateInvoice(ctx context.Context, req models.InvoiceRequest) (*models.Invoice, error) {
	return f(ctx, req)
}

func newSession(t *testing.T) (*Session, *fakeInventory, *notify.Hub) {
	t.Helper()
	return newSessionWith(t, okSubmitter{})
}

func newSessionWith(t *testing.T, sub checkout.Submitter) (*Session, *fakeInventory, *notify.Hub) {
	t.Helper()
	log, _ := test.NewNullLogger()
	inv := &fakeInventory{levels: map[int64]int{1: 3}}
	hub := notify.NewHub(20)
	s := NewSession(Settings{
		DefaultTaxRate:    decimal.RequireFromString("0.15"),
		StockStaleAfter:   time.Minute,
		ReconcileDebounce: 5 * time.Millisecond,
	}, Deps{
		Inventory: inv,
		Submitter: sub,
		Products:  catalogFake{1: {ID: 1, Name: "Coffee", CostPrice: decimal.NewFromInt(100)}},
		Notifier:  hub,
	}, log)
	t.Cleanup(s.Close)
	return s, inv, hub
}

func TestSession_AddWaitsForStock(t *testing.T) {
	s, _, _ := newSession(t)
	ctx := context.Background()

	_, err := s.AddProduct(ctx, 1)
	assert.ErrorIs(t, err, ErrStockLoading)

	require.NoError(t, s.Stock.Refresh(ctx))
	for i := 0; i < 3; i++ {
		res, err := s.AddProduct(ctx, 1)
		require.NoError(t, err)
		assert.True(t, res.OK)
	}
	res, err := s.AddProduct(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "No more stock available for Coffee", res.Message)
}

func TestSession_UpdateQuantity(t *testing.T) {
	s, _, _ := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.Stock.Refresh(ctx))
	_, err := s.AddProduct(ctx, 1)
	require.NoError(t, err)

	res, err := s.UpdateQuantity(1, 5)
	require.NoError(t, err)
	assert.False(t, res.OK)

	res, err = s.UpdateQuantity(1, 3)
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = s.UpdateQuantity(1, 0)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, s.Store.Snapshot().Empty())
}

func TestSession_CompleteKeepsInvoiceAndInvalidatesStock(t *testing.T) {
	s, _, hub := newSession(t)
	ctx := WithOperator(context.Background(), 2)
	require.NoError(t, s.Stock.Refresh(ctx))
	_, err := s.AddProduct(ctx, 1)
	require.NoError(t, err)

	_, err = s.LastInvoice()
	assert.ErrorIs(t, err, ErrNoInvoice)

	sale, err := s.Complete(ctx, checkout.Details{PaymentMethod: models.PaymentCash})
	require.NoError(t, err)
	assert.Empty(t, sale.Warning)

	last, err := s.LastInvoice()
	require.NoError(t, err)
	assert.Equal(t, sale.Invoice, last)
	assert.True(t, s.View().Cart.Empty())
	assert.True(t, s.Stock.Stale())
	assert.Equal(t, notify.Success, hub.Recent()[0].Severity)
}

func TestSession_CartClearedDuringCheckoutKeepsInvoice(t *testing.T) {
	var s *Session
	s, _, hub := newSessionWith(t, submitterFunc(func(_ context.Context, req models.InvoiceRequest) (*models.Invoice, error) {
		// The operator starts over while the shop API is still answering.
		s.Store.Clear()
		return &models.Invoice{ID: 4, InvoiceNumber: req.InvoiceNumber, TotalAmount: req.TotalAmount}, nil
	}))
	ctx := context.Background()
	require.NoError(t, s.Stock.Refresh(ctx))
	_, err := s.AddProduct(ctx, 1)
	require.NoError(t, err)

	sale, err := s.Complete(ctx, checkout.Details{PaymentMethod: models.PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, checkout.CartKeptWarning, sale.Warning)

	last, err := s.LastInvoice()
	require.NoError(t, err)
	assert.Equal(t, int64(4), last.ID)
	recent := hub.Recent()
	assert.Equal(t, checkout.CartKeptWarning, recent[len(recent)-1].Message)
}

func TestSession_ReconcilesWhileRunning(t *testing.T) {
	s, inv, hub := newSession(t)
	ctx := context.Background()
	s.Start(ctx)

	require.Eventually(t, func() bool { return s.Stock.Freshness().State == stock.StateFresh }, time.Second, 5*time.Millisecond)
	for i := 0; i < 3; i++ {
		_, err := s.AddProduct(ctx, 1)
		require.NoError(t, err)
	}

	inv.set(1, 1)
	s.Stock.Invalidate()

	require.Eventually(t, func() bool {
		it, ok := s.Store.Snapshot().Find(1)
		return ok && it.Quantity == 1
	}, 2*time.Second, 5*time.Millisecond)
	recent := hub.Recent()
	require.NotEmpty(t, recent)
	assert.Equal(t, "Coffee quantity adjusted to 1 (available stock)", recent[len(recent)-1].Message)

	s.Close()
	_, err := s.Complete(ctx, checkout.Details{PaymentMethod: models.PaymentCash})
	assert.ErrorIs(t, err, ErrClosed)
}
