package metadata

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// ErrNotFound marks a definitive upstream "no such coin/metadata"
// response. It is cached as a tombstone so repeated lookups for a
// genuinely nonexistent key do not hit the network every call.
var ErrNotFound = errors.New("metadata not found")

// Cache lifetimes.
const (
	// CoinTTL bounds staleness of coin-info lookups.
	CoinTTL = 10 * time.Minute

	// TombstoneTTL bounds how long a negative result is trusted.
	TombstoneTTL = 10 * time.Minute

	// NoExpiry caches a positive result until explicitly invalidated.
	// Used for metadata-URI payloads, which are content-addressed and
	// effectively immutable.
	NoExpiry time.Duration = 0
)

// FetchFunc performs the underlying external lookup on a cache miss.
type FetchFunc func(ctx context.Context) (*domain.TokenMeta, error)

type cacheEntry struct {
	meta      *domain.TokenMeta
	notFound  bool
	expiresAt time.Time // zero value = never expires
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is a keyed metadata cache with TTL, negative tombstones, and
// per-key request coalescing. It is the only structure mutated
// concurrently across overlapping pipeline invocations; construct one
// per process and inject it, never share through package globals.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	group   singleflight.Group
	now     func() time.Time
	metrics *observability.Metrics
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMetrics attaches observability counters to the cache.
func WithMetrics(m *observability.Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an empty metadata cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do returns the cached value for key, or runs fetch to populate it.
// Concurrent callers for the same key share a single in-flight fetch.
//
// A successful fetch is stored for ttl (NoExpiry = forever). ErrNotFound
// is stored as a tombstone and returned as-is. Any other error is not
// cached, so the next call retries immediately. The returned TokenMeta
// is shared; callers must not mutate it.
//
// kind labels the lookup for metrics only ("coin" or "uri").
func (c *Cache) Do(ctx context.Context, kind, key string, ttl time.Duration, fetch FetchFunc) (*domain.TokenMeta, error) {
	if meta, err, ok := c.lookup(kind, key); ok {
		return meta, err
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.WithLabelValues(kind).Inc()
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// A previous flight may have populated the entry between our
		// lookup and joining the group.
		if meta, lerr, ok := c.lookup(kind, key); ok {
			return flightResult{meta: meta, err: lerr}, nil
		}

		meta, ferr := fetch(ctx)
		switch {
		case ferr == nil:
			c.store(key, cacheEntry{meta: meta, expiresAt: c.expiry(ttl)})
			return flightResult{meta: meta}, nil
		case errors.Is(ferr, ErrNotFound):
			c.store(key, cacheEntry{notFound: true, expiresAt: c.now().Add(TombstoneTTL)})
			return flightResult{err: ErrNotFound}, nil
		default:
			// Transient failure: not cached, next caller retries.
			return nil, ferr
		}
	})
	if shared && c.metrics != nil {
		c.metrics.CoalescedWaits.Inc()
	}
	if err != nil {
		return nil, err
	}
	res := v.(flightResult)
	return res.meta, res.err
}

type flightResult struct {
	meta *domain.TokenMeta
	err  error
}

// lookup returns the cached value and whether the entry was usable.
func (c *Cache) lookup(kind, key string) (*domain.TokenMeta, error, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.expired(c.now()) {
		return nil, nil, false
	}
	if entry.notFound {
		if c.metrics != nil {
			c.metrics.TombstoneHits.Inc()
		}
		return nil, ErrNotFound, true
	}
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(kind).Inc()
	}
	return entry.meta, nil, true
}

func (c *Cache) store(key string, entry cacheEntry) {
	c.mu.Lock()
	c.entries[key] = entry
	size := len(c.entries)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(size))
	}
}

func (c *Cache) expiry(ttl time.Duration) time.Time {
	if ttl == NoExpiry {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// Invalidate drops the entry for key, forcing a refetch on next lookup.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Sweep removes expired entries and returns the number evicted. Intended
// to be called periodically by the owning process.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	return evicted
}

// Len returns the current number of entries, including tombstones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
