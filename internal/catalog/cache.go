// Package catalog caches read-only lists from the shop API for the UI.
package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache of one list. Concurrent misses share one
// load; a failed reload keeps serving the previous list.
type Cache[T any] struct {
	load     func(ctx context.Context) ([]T, error)
	staleFor time.Duration
	now      func() time.Time
	sf       singleflight.Group

	mu      sync.RWMutex
	items   []T
	fetched time.Time
	valid   bool
}

func NewCache[T any](load func(ctx context.Context) ([]T, error), staleFor time.Duration) *Cache[T] {
	return &Cache[T]{load: load, staleFor: staleFor, now: time.Now}
}

// Get returns the cached list, loading it when missing or stale.
func (c *Cache[T]) Get(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	if c.valid && c.now().Sub(c.fetched) < c.staleFor {
		items := c.items
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.sf.Do("load", func() (interface{}, error) {
		items, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items, c.fetched, c.valid = items, c.now(), true
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.items != nil {
			return c.items, nil
		}
		return nil, err
	}
	return v.([]T), nil
}

// Invalidate forces the next Get to reload.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
