package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"farm-market/internal/model"
)

func TestLoadTrendsJSON_BareAndWrapped(t *testing.T) {
	dir := t.TempDir()
	bare := filepath.Join(dir, "bare.json")
	wrapped := filepath.Join(dir, "wrapped.json")
	require.NoError(t, os.WriteFile(bare, []byte(`[{"crop":"Wheat","series":[["2024-01-01",10],["2024-01-02",12]]}]`), 0o644))
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"marketTrends":[{"crop":"Rice","series":[]}]}`), 0o644))

	s, err := LoadTrendsJSON(bare)
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, "Wheat", s[0].Crop)
	assert.Len(t, s[0].Series, 2)

	s, err = LoadTrendsJSON(wrapped)
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, "Rice", s[0].Crop)
}

func TestLoadTrendsJSON_RejectsStringPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"crop":"Wheat","series":[["2024-01-01","10"]]}]`), 0o644))

	_, err := LoadTrendsJSON(path)
	var ive *model.InvalidValueError
	assert.True(t, errors.As(err, &ive), "got %v", err)
}

func TestLoadRankingJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"agronomicRanking":[{"cropName":"Wheat","suitability":0.8,"expectedProfitPerHa":100,"image":"w.png"}]}`), 0o644))

	entries, err := LoadRankingJSON(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Wheat", entries[0].CropName)
	assert.Equal(t, `"w.png"`, string(entries[0].Extra["image"]))

	require.NoError(t, os.WriteFile(path, []byte(`{"ranking":[]}`), 0o644))
	_, err = LoadRankingJSON(path)
	assert.Error(t, err)
}

func TestSaveTrendsJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	in := []model.MarketTrendSeries{{Crop: "Onion", Series: []model.PricePoint{{Date: "2024-01-01", Price: 1.5}}}}
	require.NoError(t, SaveTrendsJSON(path, in))

	out, err := LoadTrendsJSON(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGroupByCrop(t *testing.T) {
	out := GroupByCrop([]model.MarketTrendSeries{
		{Crop: "wheat", Series: []model.PricePoint{{Date: "2024-01-01", Price: 1}}},
		{Crop: "Rice", Series: []model.PricePoint{{Date: "2024-01-01", Price: 5}}},
		{Crop: "Wheat ", Series: []model.PricePoint{{Date: "2024-01-02", Price: 2}}},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "Wheat ", out[0].Crop)
	assert.Equal(t, []model.PricePoint{{Date: "2024-01-01", Price: 1}, {Date: "2024-01-02", Price: 2}}, out[0].Series)
	assert.Equal(t, "Rice", out[1].Crop)
}

func TestSeriesCache(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &SeriesCache{store: map[string]*CacheEntry{}, ttl: time.Minute, now: func() time.Time { return now }}

	key := CacheKey([]string{"Wheat", "rice"})
	assert.Equal(t, key, CacheKey([]string{" RICE", "wheat"}))
	assert.NotEqual(t, key, CacheKey(nil))

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, []model.MarketTrendSeries{{Crop: "wheat"}})
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "wheat", got[0].Crop)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(key)
	assert.False(t, ok, "expired")

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestSeriesCache_SetAtDropsReadsBeforeClear(t *testing.T) {
	c := &SeriesCache{store: map[string]*CacheEntry{}, ttl: time.Minute, now: time.Now}

	gen := c.Generation()
	c.Clear()
	assert.False(t, c.SetAt(gen, "k", []model.MarketTrendSeries{{Crop: "stale"}}))
	_, ok := c.Get("k")
	assert.False(t, ok)

	assert.True(t, c.SetAt(c.Generation(), "k", []model.MarketTrendSeries{{Crop: "fresh"}}))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "fresh", got[0].Crop)
}

func TestSeriesCache_NilIsNoop(t *testing.T) {
	c := NewSeriesCache(0)
	assert.Nil(t, c)
	c.Set("k", nil)
	_, ok := c.Get("k")
	assert.False(t, ok)
	c.Clear()
	c.Close()
}

func TestFeedClient_FetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/prices/sweet corn", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"series":[["2024-01-01",10],["2024-01-02",11]]}`))
	}))
	defer srv.Close()

	c := NewFeedClient(srv.URL, FeedOptions{APIKey: "secret-key", RateLimit: rate.Inf})
	s, err := c.FetchSeries(context.Background(), "sweet corn",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "sweet corn", s.Crop)
	assert.Len(t, s.Series, 2)
}

func TestFeedClient_Errors(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusForbidden, "UNAUTHORIZED"},
		{http.StatusNotFound, "UNKNOWN_CROP"},
		{http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{http.StatusBadGateway, "API_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewFeedClient(srv.URL, FeedOptions{RateLimit: rate.Inf})
			day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err := c.FetchSeries(context.Background(), "rice", day, day)

			var fe *FeedError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.code, fe.Code)
			assert.Equal(t, tt.status, fe.StatusCode)
		})
	}
}

func TestFeedClient_Validation(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewFeedClient("", FeedOptions{}).FetchSeries(context.Background(), "rice", day, day)
	assert.Error(t, err)

	c := NewFeedClient("http://127.0.0.1:1", FeedOptions{RateLimit: rate.Inf})
	_, err = c.FetchSeries(context.Background(), "", day, day)
	assert.Error(t, err)
	_, err = c.FetchSeries(context.Background(), "rice", day.AddDate(0, 0, 1), day)
	assert.Error(t, err)
}

func TestCatalog_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "crops.json")
	require.NoError(t, SaveCatalog(DefaultCatalog(), path))

	got, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog().Crops, got.Crops)
}
