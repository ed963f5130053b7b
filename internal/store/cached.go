package store

import (
	"context"
	"strconv"

	"farm-market/internal/data"
	"farm-market/internal/model"

	"golang.org/x/sync/singleflight"
)

// Cached serves PriceStore reads through a SeriesCache. Concurrent misses for
// the same crop filter share one database query. The shared query is detached
// from the first caller's cancellation, and a result read before a write is
// never cached after it.
type Cached struct {
	*PriceStore
	cache *data.SeriesCache
	group singleflight.Group
}

// NewCached wraps s; a nil cache disables caching but keeps request collapsing.
func NewCached(s *PriceStore, cache *data.SeriesCache) *Cached {
	return &Cached{PriceStore: s, cache: cache}
}

func (c *Cached) Series(ctx context.Context, crops []string) ([]model.MarketTrendSeries, error) {
	key := data.CacheKey(crops)
	if hit, ok := c.cache.Get(key); ok {
		return hit, nil
	}
	gen := c.cache.Generation()
	flight := key + "@" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		series, err := c.PriceStore.Series(context.WithoutCancel(ctx), crops)
		if err != nil {
			return nil, err
		}
		c.cache.SetAt(gen, key, series)
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.MarketTrendSeries), nil
}

func (c *Cached) AddSeries(ctx context.Context, series []model.MarketTrendSeries) (int, error) {
	defer c.cache.Clear()
	return c.PriceStore.AddSeries(ctx, series)
}

func (c *Cached) ReplaceSeries(ctx context.Context, series []model.MarketTrendSeries) (int, error) {
	defer c.cache.Clear()
	return c.PriceStore.ReplaceSeries(ctx, series)
}

// Close stops the cache and closes the database.
func (c *Cached) Close() error {
	c.cache.Close()
	return c.PriceStore.Close()
}
