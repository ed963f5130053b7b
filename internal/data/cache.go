package data

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"farm-market/internal/model"
)

// CacheEntry is one cached store read.
type CacheEntry struct {
	Series    []model.MarketTrendSeries
	ExpiresAt time.Time
}

// SeriesCache keeps recent price-store reads in memory.
//
// A nil *SeriesCache is valid and caches nothing, so callers need not check
// whether caching is configured.
type SeriesCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
	now   func() time.Time
	gen   uint64
}

// NewSeriesCache returns nil when ttl <= 0.
func NewSeriesCache(ttl time.Duration) *SeriesCache {
	if ttl <= 0 {
		return nil
	}
	c := &SeriesCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		stop:  make(chan struct{}),
		now:   time.Now,
	}
	go c.cleanup(ttl)
	return c
}

// Get retrieves cached series if available and not expired
func (c *SeriesCache) Get(key string) ([]model.MarketTrendSeries, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Series, true
}

// Set stores series in the cache
func (c *SeriesCache) Set(key string, series []model.MarketTrendSeries) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Series:    series,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Generation changes on every Clear. Pass it to SetAt to drop results read
// before an invalidation.
func (c *SeriesCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetAt stores series only if the cache has not been cleared since gen was
// taken. It reports whether the entry was stored.
func (c *SeriesCache) SetAt(gen uint64, key string, series []model.MarketTrendSeries) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.store[key] = &CacheEntry{
		Series:    series,
		ExpiresAt: c.now().Add(c.ttl),
	}
	return true
}

// Clear removes all entries from the cache
func (c *SeriesCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
	c.gen++
}

// Len returns the number of entries, expired ones included.
func (c *SeriesCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *SeriesCache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

// cleanup periodically removes expired entries
func (c *SeriesCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, entry := range c.store {
				if now.After(entry.ExpiresAt) {
					delete(c.store, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// CacheKey builds an order- and case-insensitive key for a crop filter.
// An empty filter ("all crops") has its own key.
func CacheKey(crops []string) string {
	keys := make([]string, 0, len(crops))
	for _, c := range crops {
		if k := model.NormalizeCrop(c); k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	hash := sha256.Sum256([]byte(strings.Join(keys, "\x00")))
	return hex.EncodeToString(hash[:])
}
