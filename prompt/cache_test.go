package prompt_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/c360studio/chainflow/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable time source for TTL tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func record(area, key string) *prompt.Record {
	return &prompt.Record{
		ID:   area + "-" + key,
		Area: area,
		Key:  key,
		Text: "template for " + key,
	}
}

func TestCache_SetThenGet(t *testing.T) {
	cache := prompt.NewCache(prompt.DefaultCacheConfig())
	cache.Set(record("general", "news"))

	rec, ok := cache.Get("general", "news")
	require.True(t, ok)
	assert.Equal(t, "template for news", rec.Text)

	stats := cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
}

func TestCache_MissOnAbsent(t *testing.T) {
	cache := prompt.NewCache(prompt.DefaultCacheConfig())

	_, ok := cache.Get("general", "absent")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), cache.Stats().Misses)
}

func TestCache_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	cfg := prompt.CacheConfig{TTL: 5 * time.Minute, MaxSize: 100, Enabled: true}
	cache := prompt.NewCache(cfg, prompt.WithClock(clock.Now))

	cache.Set(record("general", "news"))

	clock.Advance(4 * time.Minute)
	_, ok := cache.Get("general", "news")
	assert.True(t, ok, "entry within TTL should hit")

	// The hit refreshed the timestamp; expire it from there.
	clock.Advance(5*time.Minute + time.Second)
	_, ok = cache.Get("general", "news")
	assert.False(t, ok, "entry past TTL should miss")

	// Lazy eviction already removed it, so cleanup finds nothing.
	assert.Equal(t, 0, cache.Cleanup())
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestCache_HitRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	cfg := prompt.CacheConfig{TTL: 5 * time.Minute, MaxSize: 100, Enabled: true}
	cache := prompt.NewCache(cfg, prompt.WithClock(clock.Now))

	cache.Set(record("general", "news"))

	// Touch every 4 minutes; the entry never expires.
	for i := 0; i < 3; i++ {
		clock.Advance(4 * time.Minute)
		_, ok := cache.Get("general", "news")
		require.True(t, ok)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	clock := newFakeClock()
	cfg := prompt.CacheConfig{TTL: time.Hour, MaxSize: 5, Enabled: true}
	cache := prompt.NewCache(cfg, prompt.WithClock(clock.Now))

	// Fill to capacity.
	for i := 0; i < 5; i++ {
		cache.Set(record("area", fmt.Sprintf("key-%d", i)))
		clock.Advance(time.Second)
	}

	// Re-access everything except key-2, making it the LRU entry even
	// though it was not the first inserted.
	for i := 0; i < 5; i++ {
		if i == 2 {
			continue
		}
		_, ok := cache.Get("area", fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		clock.Advance(time.Second)
	}

	cache.Set(record("area", "key-5"))

	_, ok := cache.Get("area", "key-2")
	assert.False(t, ok, "least recently used entry should be evicted")
	for i := 0; i < 6; i++ {
		if i == 2 {
			continue
		}
		_, ok := cache.Get("area", fmt.Sprintf("key-%d", i))
		assert.True(t, ok, "key-%d should survive", i)
	}
	assert.Equal(t, uint64(1), cache.Stats().Evictions)
}

func TestCache_SetExistingKeyDoesNotEvict(t *testing.T) {
	cfg := prompt.CacheConfig{TTL: time.Hour, MaxSize: 2, Enabled: true}
	cache := prompt.NewCache(cfg)

	cache.Set(record("a", "one"))
	cache.Set(record("a", "two"))
	cache.Set(record("a", "one")) // replace in place

	assert.Equal(t, 2, cache.Stats().Size)
	assert.Equal(t, uint64(0), cache.Stats().Evictions)
}

func TestCache_Invalidate(t *testing.T) {
	cache := prompt.NewCache(prompt.DefaultCacheConfig())
	cache.Set(record("general", "news"))
	cache.Set(record("general", "summary"))
	cache.Set(record("billing", "invoice"))

	cache.Invalidate("general", "news")
	_, ok := cache.Get("general", "news")
	assert.False(t, ok)

	cache.InvalidateByID("billing-invoice")
	_, ok = cache.Get("billing", "invoice")
	assert.False(t, ok)

	_, ok = cache.Get("general", "summary")
	assert.True(t, ok)
}

func TestCache_InvalidateArea(t *testing.T) {
	cache := prompt.NewCache(prompt.DefaultCacheConfig())
	cache.Set(record("general", "news"))
	cache.Set(record("general", "summary"))
	cache.Set(record("billing", "invoice"))

	cache.InvalidateArea("general")

	assert.Equal(t, 1, cache.Stats().Size)
	_, ok := cache.Get("billing", "invoice")
	assert.True(t, ok)
}

func TestCache_CleanupCountsExpired(t *testing.T) {
	clock := newFakeClock()
	cfg := prompt.CacheConfig{TTL: time.Minute, MaxSize: 100, Enabled: true}
	cache := prompt.NewCache(cfg, prompt.WithClock(clock.Now))

	cache.Set(record("a", "one"))
	cache.Set(record("a", "two"))
	clock.Advance(2 * time.Minute)
	cache.Set(record("a", "three"))

	assert.Equal(t, 2, cache.Cleanup())
	assert.Equal(t, 1, cache.Stats().Size)
}

func TestCache_Disabled(t *testing.T) {
	cfg := prompt.CacheConfig{TTL: time.Hour, MaxSize: 100, Enabled: false}
	cache := prompt.NewCache(cfg)

	cache.Set(record("general", "news"))
	_, ok := cache.Get("general", "news")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestCache_StatsCountAllEvictionReasons(t *testing.T) {
	clock := newFakeClock()
	cfg := prompt.CacheConfig{TTL: time.Minute, MaxSize: 2, Enabled: true}
	cache := prompt.NewCache(cfg, prompt.WithClock(clock.Now))

	// LRU: third insert pushes out the oldest of two.
	cache.Set(record("general", "a"))
	clock.Advance(time.Second)
	cache.Set(record("general", "b"))
	clock.Advance(time.Second)
	cache.Set(record("general", "c"))
	assert.Equal(t, uint64(1), cache.Stats().Evictions)

	// Lazy expiry on Get.
	clock.Advance(2 * time.Minute)
	_, ok := cache.Get("general", "b")
	assert.False(t, ok)
	assert.Equal(t, uint64(2), cache.Stats().Evictions)

	// Explicit invalidation.
	cache.Invalidate("general", "c")
	assert.Equal(t, uint64(3), cache.Stats().Evictions)

	// Cleanup sweep counts each expired entry it removes.
	cache.Set(record("general", "d"))
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, cache.Cleanup())
	assert.Equal(t, uint64(4), cache.Stats().Evictions)
}

func TestConfigure_ReplacesDefaultWholesale(t *testing.T) {
	prompt.Configure(prompt.DefaultCacheConfig())
	prompt.DefaultCache().Set(record("general", "news"))

	prompt.Configure(prompt.CacheConfig{TTL: time.Minute, MaxSize: 10, Enabled: true})

	_, ok := prompt.DefaultCache().Get("general", "news")
	assert.False(t, ok, "configure drops prior entries")
}
