// Package stock answers "how many units of product P can still be sold".
package stock

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var ErrClosed = errors.New("stock oracle closed")

// Availability is the answer for one product. Known is false until a
// snapshot has loaded; a known zero means "definitely out of stock".
type Availability struct {
	Known    bool `json:"known"`
	Quantity int  `json:"quantity"`
}

func Unknown() Availability { return Availability{} }

func Units(n int) Availability { return Availability{Known: true, Quantity: n} }

// Allows reports whether n units are known to be available.
func (a Availability) Allows(n int) bool { return a.Known && a.Quantity >= n }

type State string

const (
	StateUnknown State = "unknown"
	StateLoading State = "loading"
	StateFresh   State = "fresh"
)

// Freshness describes the snapshot currently being served.
type Freshness struct {
	State      State     `json:"state"`
	AsOf       time.Time `json:"asOf,omitempty"`
	Refreshing bool      `json:"refreshing"`
	LastError  string    `json:"lastError,omitempty"`
}

// Snapshot maps product id to available units.
type Snapshot struct {
	Levels map[int64]int `json:"levels"`
	AsOf   time.Time     `json:"asOf"`
}

// Fetcher reads the inventory list from the shop API.
type Fetcher interface {
	Inventories(ctx context.Context) ([]models.InventoryLevel, error)
}

type Option func(*Oracle)

func WithMirror(m Mirror) Option               { return func(o *Oracle) { o.mirror = m } }
func WithStaleAfter(d time.Duration) Option    { return func(o *Oracle) { o.staleAfter = d } }
func WithClock(now func() time.Time) Option    { return func(o *Oracle) { o.now = now } }
func WithLogger(log logrus.FieldLogger) Option { return func(o *Oracle) { o.log = log } }

// Oracle is a read-through cache of inventory levels. It keeps serving the
// last good snapshot when a refresh fails.
type Oracle struct {
	fetcher    Fetcher
	mirror     Mirror
	staleAfter time.Duration
	now        func() time.Time
	log        logrus.FieldLogger

	sf   singleflight.Group
	kick chan struct{}

	mu          sync.RWMutex
	snap        *Snapshot
	loading     bool
	invalidated bool
	lastErr     error
	closed      bool

	changed notify.Signal
}

func NewOracle(f Fetcher, opts ...Option) *Oracle {
	o := &Oracle{
		fetcher:    f,
		staleAfter: 30 * time.Second,
		now:        time.Now,
		log:        logrus.StandardLogger(),
		kick:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithField("module", "stock")
	return o
}

// Subscribe ticks whenever a new snapshot is installed.
func (o *Oracle) Subscribe() (<-chan struct{}, func()) {
	return o.changed.Subscribe()
}

// Available reports what is known about productID. Products missing from a
// loaded snapshot have no inventory row and count as zero.
func (o *Oracle) Available(productID int64) (Availability, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return Unknown(), ErrClosed
	}
	if o.snap == nil {
		return Unknown(), nil
	}
	return Units(o.snap.Levels[productID]), nil
}

// Levels returns a copy of the current snapshot, or nil when none has loaded.
func (o *Oracle) Levels() *Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.snap == nil {
		return nil
	}
	cp := &Snapshot{Levels: make(map[int64]int, len(o.snap.Levels)), AsOf: o.snap.AsOf}
	for k, v := range o.snap.Levels {
		cp.Levels[k] = v
	}
	return cp
}

func (o *Oracle) Freshness() Freshness {
	o.mu.RLock()
	defer o.mu.RUnlock()
	f := Freshness{Refreshing: o.loading}
	if o.lastErr != nil {
		f.LastError = o.lastErr.Error()
	}
	switch {
	case o.snap != nil:
		f.State = StateFresh
		f.AsOf = o.snap.AsOf
	case o.loading:
		f.State = StateLoading
	default:
		f.State = StateUnknown
	}
	return f
}

// Stale is true when no snapshot exists, it was invalidated, or it has aged
// past the staleness window.
func (o *Oracle) Stale() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snap == nil || o.invalidated || o.now().Sub(o.snap.AsOf) >= o.staleAfter
}

// Invalidate marks the snapshot stale and asks Run to refetch right away,
// e.g. after a sale has been recorded.
func (o *Oracle) Invalidate() {
	o.mu.Lock()
	o.invalidated = true
	o.mu.Unlock()
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Refresh fetches the inventory list once. Concurrent callers share one request.
func (o *Oracle) Refresh(ctx context.Context) error {
	_, err, _ := o.sf.Do("inventories", func() (interface{}, error) {
		return nil, o.refresh(ctx)
	})
	return err
}

func (o *Oracle) refresh(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.loading = true
	o.mu.Unlock()

	levels, err := o.fetcher.Inventories(ctx)

	o.mu.Lock()
	o.loading = false
	if o.closed || ctx.Err() != nil {
		// The session is gone; drop the answer.
		o.mu.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		if err == nil {
			err = ErrClosed
		}
		return err
	}
	if err != nil {
		o.lastErr = err
		hasSnap := o.snap != nil
		o.mu.Unlock()
		o.log.WithError(err).Warn("inventory refresh failed, keeping last snapshot")
		if !hasSnap {
			o.restoreFromMirror(ctx)
		}
		return err
	}

	snap := &Snapshot{Levels: make(map[int64]int, len(levels)), AsOf: o.now()}
	for _, l := range levels {
		q := l.Quantity
		if q < 0 {
			q = 0
		}
		snap.Levels[l.ProductRef()] += q
	}
	o.snap = snap
	o.invalidated = false
	o.lastErr = nil
	o.mu.Unlock()

	o.log.WithField("products", len(snap.Levels)).Debug("inventory snapshot installed")
	o.changed.Fire()

	if o.mirror != nil {
		if err := o.mirror.Save(ctx, *snap); err != nil {
			o.log.WithError(err).Warn("inventory mirror save failed")
		}
	}
	return nil
}

func (o *Oracle) restoreFromMirror(ctx context.Context) {
	if o.mirror == nil {
		return
	}
	snap, err := o.mirror.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			o.log.WithError(err).Warn("inventory mirror load failed")
		}
		return
	}

	o.mu.Lock()
	if o.snap != nil || o.closed {
		o.mu.Unlock()
		return
	}
	o.snap = &snap
	o.mu.Unlock()

	o.log.WithField("as_of", snap.AsOf).Info("serving mirrored inventory snapshot")
	o.changed.Fire()
}

// Run refreshes on start, whenever the snapshot goes stale, and on Invalidate,
// until ctx is done. It then closes the oracle.
func (o *Oracle) Run(ctx context.Context) {
	defer o.Close()

	tick := o.staleAfter / 10
	if tick < 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	if tick > time.Second {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	_ = o.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.kick:
			_ = o.Refresh(ctx)
		case <-ticker.C:
			if o.Stale() {
				_ = o.Refresh(ctx)
			}
		}
	}
}

// Close makes every later lookup fail with ErrClosed and discards in-flight results.
func (o *Oracle) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}
