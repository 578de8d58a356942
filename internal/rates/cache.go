package rates

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pfrederiksen/poker-calendar/internal/logger"
)

// DefaultTTL is how long a fetched table is served before refreshing.
const DefaultTTL = 24 * time.Hour

// Fetcher obtains a fresh rate table.
type Fetcher interface {
	Fetch(ctx context.Context) (*Table, error)
}

// Persister stores the last good table across restarts.
type Persister interface {
	LoadRates() (*Table, error)
	SaveRates(table *Table) error
}

// Cache serves a rate table for TTL and refreshes it on the first request
// after expiry. The current table is swapped atomically, so readers always
// see a complete table.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	current atomic.Pointer[Table]

	// ServeStale serves the previous table past its TTL when a refresh
	// fails, instead of failing the request.
	ServeStale bool
	// Store, when set, receives every fetched table and seeds stale fallback.
	Store Persister
	// Now is the clock used for expiry checks.
	Now func() time.Time
}

// NewCache creates a cache with the given TTL (DefaultTTL when <= 0).
func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		Now:     time.Now,
	}
}

// TTL returns the validity window of a fetched table.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Current returns the cached table without refreshing, or nil.
func (c *Cache) Current() *Table {
	return c.current.Load()
}

// Get returns a table no older than TTL, fetching a new one if needed.
func (c *Cache) Get(ctx context.Context) (*Table, error) {
	now := c.Now()
	if t := c.current.Load(); t != nil && t.Age(now) < c.ttl {
		return t, nil
	}

	fresh, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return c.fallback(err)
	}
	if fresh.FetchedAt.IsZero() {
		fresh.FetchedAt = now
	}

	c.current.Store(fresh)
	logger.Info("Rate table refreshed", logger.Fields{
		"currencies": len(fresh.Rates),
		"base":       fresh.Base,
	})

	if c.Store != nil {
		if err := c.Store.SaveRates(fresh); err != nil {
			logger.Warn("Saving rate table failed", logger.Fields{"error": err.Error()})
		}
	}

	return fresh, nil
}

// fallback serves an expired table when allowed, otherwise returns err.
func (c *Cache) fallback(err error) (*Table, error) {
	if !c.ServeStale {
		return nil, err
	}

	stale := c.current.Load()
	if stale == nil && c.Store != nil {
		loaded, loadErr := c.Store.LoadRates()
		if loadErr != nil {
			return nil, fmt.Errorf("%w (loading saved rates: %v)", err, loadErr)
		}
		if loaded != nil {
			c.current.CompareAndSwap(nil, loaded)
			stale = c.current.Load()
		}
	}
	if stale == nil {
		return nil, err
	}

	logger.Warn("Serving stale rate table", logger.Fields{
		"age":   stale.Age(c.Now()).Round(time.Second).String(),
		"cause": err.Error(),
	})
	return stale, nil
}
