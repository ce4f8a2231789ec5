package prompt

import (
	"context"
	"sync"
	"time"

	"github.com/c360studio/chainflow/metrics"
)

// CacheConfig configures the prompt cache.
type CacheConfig struct {
	// TTL is how long an entry stays valid after its last access.
	TTL time.Duration

	// MaxSize bounds the number of entries; the least recently used entry
	// is evicted when the bound is reached.
	MaxSize int

	// Enabled turns the cache off entirely when false.
	Enabled bool
}

// DefaultCacheConfig returns the default cache settings: 5 minute TTL,
// 100 entries, enabled.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:     5 * time.Minute,
		MaxSize: 100,
		Enabled: true,
	}
}

// cacheEntry is owned exclusively by the cache. The timestamp is updated on
// every hit, so eviction order is true LRU by last access.
type cacheEntry struct {
	record      *Record
	lastAccess  time.Time
	accessCount int
}

// CacheStats reports cache observability counters. Evictions counts every
// removal regardless of reason: LRU pressure, TTL expiry, invalidation.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Cache is a TTL-bounded, LRU-evicting prompt cache keyed by (area, key)
// with a secondary id lookup. All access is serialized by a single lock;
// at the stated scale (a few hundred entries) the O(n) eviction scan is
// fine.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	cfg     CacheConfig
	now     func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the cache's time source, for tests that need to
// advance simulated time past the TTL.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache with the given configuration.
func NewCache(cfg CacheConfig, opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*cacheEntry),
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(area, key string) string {
	return area + "\x00" + key
}

// Get returns the cached record for (area, key). Expired entries are
// evicted lazily here rather than proactively. A hit refreshes the entry's
// timestamp and access count.
func (c *Cache) Get(area, key string) (*Record, bool) {
	if !c.cfg.Enabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.entries[cacheKey(area, key)]
	if !ok {
		c.misses++
		metrics.PromptCacheMissesTotal.Inc()
		return nil, false
	}
	if now.Sub(entry.lastAccess) > c.cfg.TTL {
		delete(c.entries, cacheKey(area, key))
		c.misses++
		c.evictions++
		metrics.PromptCacheMissesTotal.Inc()
		metrics.PromptCacheEvictionsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}

	entry.lastAccess = now
	entry.accessCount++
	c.hits++
	metrics.PromptCacheHitsTotal.Inc()
	return entry.record, true
}

// Set inserts a record keyed by its (area, key). If the cache is full the
// single oldest-touched entry is evicted first.
func (c *Cache) Set(rec *Record) {
	if !c.cfg.Enabled || rec == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(rec.Area, rec.Key)
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = &cacheEntry{
		record:     rec,
		lastAccess: c.now(),
	}
}

// evictOldestLocked removes the entry with the smallest last-access
// timestamp. Linear scan; the cache is small.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.lastAccess.Before(oldest) {
			oldestKey = key
			oldest = entry.lastAccess
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
		metrics.PromptCacheEvictionsTotal.WithLabelValues("lru").Inc()
	}
}

// Invalidate removes the entry for (area, key) immediately, bypassing TTL.
func (c *Cache) Invalidate(area, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[cacheKey(area, key)]; ok {
		delete(c.entries, cacheKey(area, key))
		c.evictions++
		metrics.PromptCacheEvictionsTotal.WithLabelValues("invalidated").Inc()
	}
}

// InvalidateByID removes any entry whose record carries the given id.
func (c *Cache) InvalidateByID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.record.ID == id {
			delete(c.entries, key)
			c.evictions++
			metrics.PromptCacheEvictionsTotal.WithLabelValues("invalidated").Inc()
		}
	}
}

// InvalidateArea removes all entries for the given prompt area.
func (c *Cache) InvalidateArea(area string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.record.Area == area {
			delete(c.entries, key)
			c.evictions++
			metrics.PromptCacheEvictionsTotal.WithLabelValues("invalidated").Inc()
		}
	}
}

// Cleanup purges all expired entries and returns the number removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.lastAccess) > c.cfg.TTL {
			delete(c.entries, key)
			removed++
			c.evictions++
			metrics.PromptCacheEvictionsTotal.WithLabelValues("expired").Inc()
		}
	}
	return removed
}

// StartCleanup runs Cleanup on the given interval until ctx is done.
func (c *Cache) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
	}
}

// Default cache instance. Lazily created on first use; Configure replaces
// it wholesale, dropping prior entries.
var (
	defaultCache   *Cache
	defaultCacheMu sync.Mutex
)

// DefaultCache returns the process-wide cache, creating it with default
// settings on first use.
func DefaultCache() *Cache {
	defaultCacheMu.Lock()
	defer defaultCacheMu.Unlock()

	if defaultCache == nil {
		defaultCache = NewCache(DefaultCacheConfig())
	}
	return defaultCache
}

// Configure replaces the default cache with a fresh instance using cfg.
// This is an explicit reset-and-reconfigure: prior entries are lost.
func Configure(cfg CacheConfig, opts ...CacheOption) *Cache {
	defaultCacheMu.Lock()
	defer defaultCacheMu.Unlock()

	defaultCache = NewCache(cfg, opts...)
	return defaultCache
}
