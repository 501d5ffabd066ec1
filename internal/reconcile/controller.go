// Package reconcile keeps cart lines within the stock the oracle reports.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/stock"

	"github.com/sirupsen/logrus"
)

// StockSource is the slice of the stock oracle the controller needs.
type StockSource interface {
	Available(productID int64) (stock.Availability, error)
	Subscribe() (<-chan struct{}, func())
}

// Adjustment records one line the controller had to shrink or drop.
type Adjustment struct {
	ProductID   int64
	ProductName string
	From        int
	To          int
}

func (a Adjustment) Removed() bool { return a.To == 0 }

// Controller re-checks every cart line whenever the cart or the stock
// snapshot changes. It only ever lowers quantities and never re-adds a line.
type Controller struct {
	store    *cart.Store
	stock    StockSource
	notifier notify.Notifier
	debounce time.Duration
	log      logrus.FieldLogger
}

func NewController(store *cart.Store, src StockSource, n notify.Notifier, debounce time.Duration, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		store:    store,
		stock:    src,
		notifier: n,
		debounce: debounce,
		log:      log.WithField("module", "reconcile"),
	}
}

// Reconcile runs one full pass and returns what it changed. A lookup error
// aborts the pass without touching the cart.
func (c *Controller) Reconcile() ([]Adjustment, error) {
	snap := c.store.Snapshot()

	type check struct {
		item  cart.Item
		avail stock.Availability
	}
	checks := make([]check, 0, len(snap.Items))
	for _, it := range snap.Items {
		a, err := c.stock.Available(it.Product.ID)
		if err != nil {
			return nil, fmt.Errorf("stock lookup for product %d: %w", it.Product.ID, err)
		}
		checks = append(checks, check{item: it, avail: a})
	}

	var out []Adjustment
	for _, ch := range checks {
		if !ch.avail.Known || ch.avail.Quantity >= ch.item.Quantity {
			continue
		}
		// ClampTo re-reads the line under the store lock, so edits made since
		// the snapshot are respected.
		after, changed := c.store.ClampTo(ch.item.Product.ID, ch.avail.Quantity)
		if !changed {
			continue
		}
		adj := Adjustment{
			ProductID:   ch.item.Product.ID,
			ProductName: ch.item.Product.Name,
			From:        ch.item.Quantity,
			To:          after.Quantity,
		}
		out = append(out, adj)
		c.announce(adj)
	}
	return out, nil
}

func (c *Controller) announce(a Adjustment) {
	c.log.WithFields(logrus.Fields{
		"product_id": a.ProductID,
		"from":       a.From,
		"to":         a.To,
	}).Info("cart line clamped to stock")

	if c.notifier == nil {
		return
	}
	if a.Removed() {
		c.notifier.Notify(fmt.Sprintf("%s was removed from the cart: no stock left", a.ProductName), notify.Error)
		return
	}
	c.notifier.Notify(fmt.Sprintf("%s quantity adjusted to %d (available stock)", a.ProductName, a.To), notify.Info)
}

// Run listens to both the cart and the stock oracle until ctx is done.
// Bursts of changes within the debounce window trigger a single pass.
func (c *Controller) Run(ctx context.Context) {
	cartCh, stopCart := c.store.Subscribe()
	defer stopCart()
	stockCh, stopStock := c.stock.Subscribe()
	defer stopStock()

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(c.debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.debounce)
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-cartCh:
			if !ok {
				return
			}
			schedule()
		case _, ok := <-stockCh:
			if !ok {
				return
			}
			schedule()
		case <-fire:
			if ctx.Err() != nil {
				return
			}
			if _, err := c.Reconcile(); err != nil {
				c.log.WithError(err).Warn("reconciliation skipped")
				if !failing && c.notifier != nil {
					c.notifier.Notify("Could not verify stock for the cart; will retry", notify.Error)
				}
				failing = true
				continue
			}
			failing = false
		}
	}
}
