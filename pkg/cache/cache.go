// Package cache provides a content-addressed, two-tier memoization store:
// a bounded in-memory LRU tier in front of a durable SQLite tier. Values are
// opaque bytes; the store never interprets them.
package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Store is the contract consumed by callers. All methods are safe for
// concurrent use.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Invalidate(key string) error
	Stats() Stats
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Evictions     int64 `json:"evictions"`
	MemoryEntries int   `json:"memory_entries"`
	DiskEntries   int64 `json:"disk_entries"`
}

type entry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
	hits      atomic.Int64
}

func (e *entry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.After(e.createdAt.Add(e.ttl))
}

// TwoTier implements Store with an LRU memory tier backed by an optional
// disk tier. The disk tier is consulted only on memory miss; a disk hit
// back-fills memory. Disk failures degrade to cache misses, never errors.
type TwoTier struct {
	mem    *lru.Cache[string, *entry]
	disk   *DiskStore
	now    func() time.Time
	logger *zap.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
}

// Option configures a TwoTier store.
type Option func(*TwoTier)

// WithClock overrides the time source, for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(c *TwoTier) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *TwoTier) { c.logger = logger }
}

// NewTwoTier creates a store holding up to maxEntries in memory. disk may be
// nil for a memory-only store.
func NewTwoTier(maxEntries int, disk *DiskStore, opts ...Option) (*TwoTier, error) {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	mem, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		return nil, err
	}

	c := &TwoTier{
		mem:    mem,
		disk:   disk,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the cached value for key. Expired entries are removed lazily
// and reported as misses.
func (c *TwoTier) Get(key string) ([]byte, bool) {
	now := c.now()

	if e, ok := c.mem.Get(key); ok {
		if e.expired(now) {
			c.mem.Remove(key)
			c.diskDelete(key)
			return c.miss(key)
		}
		e.hits.Add(1)
		c.hits.Add(1)
		hitsTotal.WithLabelValues("memory").Inc()
		return e.value, true
	}

	if c.disk != nil {
		e, ok, err := c.disk.Get(key)
		if err != nil {
			c.logger.Warn("disk cache read failed, treating as miss",
				zap.String("key", key), zap.Error(err))
			return c.miss(key)
		}
		if ok {
			if e.expired(now) {
				c.diskDelete(key)
				return c.miss(key)
			}
			if c.mem.Add(key, e) {
				c.evictions.Add(1)
				evictionsTotal.Inc()
			}
			e.hits.Add(1)
			c.hits.Add(1)
			hitsTotal.WithLabelValues("disk").Inc()
			return e.value, true
		}
	}

	return c.miss(key)
}

// Set stores value under key with the given TTL. A non-positive TTL means
// the entry never expires.
func (c *TwoTier) Set(key string, value []byte, ttl time.Duration) error {
	e := &entry{value: value, createdAt: c.now(), ttl: ttl}
	if c.mem.Add(key, e) {
		c.evictions.Add(1)
		evictionsTotal.Inc()
	}
	c.sets.Add(1)
	setsTotal.Inc()

	if c.disk != nil {
		if err := c.disk.Set(key, value, e.createdAt, ttl); err != nil {
			c.logger.Warn("disk cache write failed",
				zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Invalidate removes key from both tiers.
func (c *TwoTier) Invalidate(key string) error {
	c.mem.Remove(key)
	c.diskDelete(key)
	return nil
}

// PruneExpired removes expired entries from both tiers and returns the count
// removed. The memory tier already drops expired entries lazily on read, so
// this mainly bounds stale disk growth.
func (c *TwoTier) PruneExpired() int64 {
	now := c.now()
	var pruned int64

	for _, key := range c.mem.Keys() {
		if e, ok := c.mem.Peek(key); ok && e.expired(now) {
			c.mem.Remove(key)
			pruned++
		}
	}
	if c.disk != nil {
		n, err := c.disk.PruneExpired(now)
		if err != nil {
			c.logger.Warn("disk cache prune failed", zap.Error(err))
		} else {
			pruned += n
		}
	}
	return pruned
}

// Stats returns hit/miss counters and entry counts.
func (c *TwoTier) Stats() Stats {
	s := Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Sets:          c.sets.Load(),
		Evictions:     c.evictions.Load(),
		MemoryEntries: c.mem.Len(),
	}
	if c.disk != nil {
		if n, err := c.disk.Len(); err == nil {
			s.DiskEntries = n
		}
	}
	return s
}

// Clear drops every entry from both tiers.
func (c *TwoTier) Clear() error {
	c.mem.Purge()
	if c.disk != nil {
		return c.disk.Clear()
	}
	return nil
}

// Close releases the disk tier, if any.
func (c *TwoTier) Close() error {
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}

func (c *TwoTier) miss(key string) ([]byte, bool) {
	c.misses.Add(1)
	missesTotal.Inc()
	return nil, false
}

func (c *TwoTier) diskDelete(key string) {
	if c.disk == nil {
		return
	}
	if err := c.disk.Delete(key); err != nil {
		c.logger.Warn("disk cache delete failed",
			zap.String("key", key), zap.Error(err))
	}
}
