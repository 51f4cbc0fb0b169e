// Package analytics computes aggregate stock and sales metrics and caches them in memory
// and in the persisted key-value layer.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/stockwise/internal/config"
	"github.com/hyperjump/stockwise/internal/datastore"
	"github.com/hyperjump/stockwise/internal/kv"
	"github.com/hyperjump/stockwise/internal/models"
)

// KeyCachedAnalytics is the persisted key of the cached record.
const KeyCachedAnalytics = "analytics:cache"

// DefaultTTL is how long a computed record stays fresh.
const DefaultTTL = 5 * time.Minute

// Cache serves analytics from memory, then from the persisted copy, and recomputes from
// the data store when both are missing or stale.
type Cache struct {
	reader datastore.Reader
	kv     kv.Store
	ttl    time.Duration
	opts   Options
	now    func() time.Time
	logger *zap.Logger

	mu          sync.Mutex
	memory      *models.CachedAnalytics
	lastWritten time.Time
	// started numbers computations; results numbered at or below written are not stored.
	started uint64
	written uint64

	// writeMu orders memory and persisted writes between computations.
	writeMu sync.Mutex
	flight  singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithConfig applies TTL and summary settings. Zero values keep the defaults.
func WithConfig(cfg config.AnalyticsConfig) Option {
	return func(c *Cache) {
		if cfg.TTL > 0 {
			c.ttl = cfg.TTL
		}
		if cfg.TopProducts > 0 {
			c.opts.TopProducts = cfg.TopProducts
		}
		if cfg.ReorderLimit > 0 {
			c.opts.ReorderLimit = cfg.ReorderLimit
		}
		if cfg.HighMarginThreshold > 0 {
			c.opts.HighMarginThreshold = cfg.HighMarginThreshold
		}
	}
}

// NewCache creates an analytics cache.
func NewCache(reader datastore.Reader, kvStore kv.Store, opts ...Option) *Cache {
	c := &Cache{
		reader: reader,
		kv:     kvStore,
		ttl:    DefaultTTL,
		opts:   DefaultOptions(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns fresh analytics. When recomputation fails, the last known record is returned
// even if stale; an error is returned only if nothing was ever computed.
func (c *Cache) Get(ctx context.Context) (*models.CachedAnalytics, error) {
	now := c.now()
	mem := c.memoryCopy()
	if mem.IsFresh(now, c.ttl) {
		return mem, nil
	}

	persisted := c.loadPersisted(ctx)
	if persisted.IsFresh(now, c.ttl) {
		c.mu.Lock()
		c.memory = persisted
		c.mu.Unlock()
		return clone(persisted), nil
	}

	fresh, err := c.recompute(ctx)
	if err == nil {
		return fresh, nil
	}
	if lkg := newest(mem, persisted); lkg != nil {
		c.logger.Warn("Analytics recomputation failed, serving last known record",
			zap.Time("computed_at", lkg.ComputedAt), zap.Error(err))
		return clone(lkg), nil
	}
	return nil, err
}

// ForceRefresh recomputes regardless of freshness and never joins a computation already
// in flight, so the result reflects the data store as of the call. The returned ComputedAt
// is strictly newer than any previously written. On failure the last known record, if any,
// is returned together with the error.
func (c *Cache) ForceRefresh(ctx context.Context) (*models.CachedAnalytics, error) {
	fresh, err := c.compute(ctx)
	if err == nil {
		return clone(fresh), nil
	}
	if lkg := newest(c.memoryCopy(), c.loadPersisted(ctx)); lkg != nil {
		return lkg, err
	}
	return nil, err
}

// Invalidate clears both tiers without recomputing. Computations already scanning the data
// store are not cached.
func (c *Cache) Invalidate(ctx context.Context) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.memory = nil
	c.written = c.started
	c.mu.Unlock()
	if err := c.kv.Remove(ctx, KeyCachedAnalytics); err != nil {
		c.logger.Warn("Failed to remove persisted analytics", zap.Error(err))
	}
	c.logger.Debug("Invalidated analytics cache")
}

// recompute shares one computation between concurrent callers.
func (c *Cache) recompute(ctx context.Context) (*models.CachedAnalytics, error) {
	v, err, _ := c.flight.Do("compute", func() (interface{}, error) {
		return c.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return clone(v.(*models.CachedAnalytics)), nil
}

// compute scans the data store and stores the result. A computation that finishes after a
// later-started one was stored, or after an Invalidate, does not overwrite the cache.
func (c *Cache) compute(ctx context.Context) (*models.CachedAnalytics, error) {
	c.mu.Lock()
	c.started++
	seq := c.started
	c.mu.Unlock()

	products, err := c.reader.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	suppliers, err := c.reader.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	sales, err := c.reader.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	record := Summarize(products, suppliers, sales, c.opts)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if seq <= c.written {
		latest := clone(c.memory)
		if latest == nil {
			// Invalidated while scanning; the result is served but not stored.
			record.ComputedAt = c.now()
			latest = record
		}
		c.mu.Unlock()
		c.logger.Debug("Analytics superseded by a newer computation or invalidation")
		return latest, nil
	}
	c.written = seq
	ts := c.now()
	if !ts.After(c.lastWritten) {
		ts = c.lastWritten.Add(time.Nanosecond)
	}
	c.lastWritten = ts
	record.ComputedAt = ts
	c.memory = record
	c.mu.Unlock()

	c.persist(ctx, record)
	c.logger.Debug("Computed analytics",
		zap.Int("products", record.TotalProducts),
		zap.String("stock_health", record.StockHealth))
	return record, nil
}

func (c *Cache) persist(ctx context.Context, record *models.CachedAnalytics) {
	data, err := json.Marshal(record)
	if err != nil {
		c.logger.Warn("Failed to encode analytics", zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, KeyCachedAnalytics, string(data)); err != nil {
		c.logger.Warn("Failed to persist analytics", zap.Error(err))
	}
}

// loadPersisted returns the persisted record, or nil when missing or unreadable.
func (c *Cache) loadPersisted(ctx context.Context) *models.CachedAnalytics {
	raw, ok, err := c.kv.Get(ctx, KeyCachedAnalytics)
	if err != nil {
		c.logger.Warn("Failed to read persisted analytics", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var record models.CachedAnalytics
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		c.logger.Warn("Failed to parse persisted analytics", zap.Error(err))
		return nil
	}
	c.mu.Lock()
	if record.ComputedAt.After(c.lastWritten) {
		c.lastWritten = record.ComputedAt
	}
	c.mu.Unlock()
	return &record
}

func (c *Cache) memoryCopy() *models.CachedAnalytics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.memory)
}

func newest(a, b *models.CachedAnalytics) *models.CachedAnalytics {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.ComputedAt.After(a.ComputedAt):
		return b
	default:
		return a
	}
}

// clone copies the record so callers cannot modify cached slices.
func clone(a *models.CachedAnalytics) *models.CachedAnalytics {
	if a == nil {
		return nil
	}
	out := *a
	out.TopProducts = copySummaries(a.TopProducts)
	out.HighMarginProducts = copySummaries(a.HighMarginProducts)
	out.ReorderSuggestions = copySummaries(a.ReorderSuggestions)
	return &out
}

func copySummaries(in []models.ProductSummary) []models.ProductSummary {
	if in == nil {
		return nil
	}
	out := make([]models.ProductSummary, len(in))
	copy(out, in)
	return out
}
