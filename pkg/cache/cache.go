// Package cache provides a staleness-aware cache for rendered
// documents.
//
// Entries never expire on their own. Instead each read supplies a
// freshness window and the cache reports whether the entry is still
// inside it. A stale entry keeps its markup, so callers can serve the
// old document while a replacement renders and fall back to it when
// the replacement fails.
//
// Backends are pluggable through the Store interface: an in-process
// LRU store, a SQL store, and an S3 store are provided.
package cache

import (
	"context"
	"time"
)

// Freshness is a per-read staleness window. An entry is stale when its
// age exceeds the window, or when it was explicitly invalidated.
type Freshness time.Duration

const (
	// Never disables age-based staleness. Only explicit invalidation
	// marks the entry stale.
	Never Freshness = -1

	// Always treats every read as stale. Useful for pages that must
	// re-render on each request but still want a fallback document.
	Always Freshness = 0
)

// exceeded reports whether an entry of the given age is outside the
// window.
func (f Freshness) exceeded(age time.Duration) bool {
	if f == Never {
		return false
	}
	return age > time.Duration(f)
}

// Lookup is the result of a cache read.
type Lookup struct {
	// Markup is the cached document. Valid whenever Found is set,
	// stale or not.
	Markup string

	// Stale reports that the entry was invalidated or aged out of the
	// requested freshness window.
	Stale bool

	// Found reports whether the key had an entry at all.
	Found bool
}

// Cache is the front over a Store. Safe for concurrent use; races
// between writers resolve last-write-wins at the store.
type Cache struct {
	store   Store
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics records hit/miss/write counters on the given collector.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks up key and classifies the entry against the freshness
// window. A missing key yields Found=false.
func (c *Cache) Get(ctx context.Context, key string, window Freshness) (Lookup, error) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return Lookup{}, err
	}
	if entry == nil {
		c.metrics.miss()
		return Lookup{}, nil
	}

	stale := entry.Stale || window.exceeded(c.now().Sub(entry.GeneratedAt))
	if stale {
		c.metrics.staleHit()
	} else {
		c.metrics.hit()
	}
	return Lookup{Markup: entry.Markup, Stale: stale, Found: true}, nil
}

// Set stores freshly rendered markup under key, resetting both the
// timestamp and any manual stale flag.
func (c *Cache) Set(ctx context.Context, key, markup string) error {
	entry := &Entry{
		Markup:      markup,
		GeneratedAt: c.now(),
	}
	if err := c.store.Set(ctx, key, entry); err != nil {
		return err
	}
	c.metrics.write()
	return nil
}

// Invalidate marks the entry under key stale without discarding its
// markup or timestamp. Returns false if the key had no entry.
func (c *Cache) Invalidate(ctx context.Context, key string) (bool, error) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if !entry.Stale {
		entry.Stale = true
		if err := c.store.Set(ctx, key, entry); err != nil {
			return false, err
		}
	}
	c.metrics.invalidation()
	return true, nil
}

// Delete removes the entry under key entirely.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Clear removes all entries.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}
