package analysis

import (
	"math"
	"sort"
	"time"

	"farm-market/internal/model"
)

// ExtractTrends fits a linear price trend per crop and returns it keyed by
// model.NormalizeCrop(crop).
//
// Points are ordered by date before fitting; the regression runs over the
// time-step index 0..n-1, not calendar time, so irregular sampling does not
// change the slope's scale. Crops with fewer than two points get no entry.
// When two series normalize to the same crop, the later one replaces the earlier.
func ExtractTrends(series []model.MarketTrendSeries) (map[string]model.CropTrend, error) {
	out := make(map[string]model.CropTrend, len(series))
	for _, s := range series {
		for i, p := range s.Series {
			if !isFinite(p.Price) {
				return nil, &model.InvalidValueError{Crop: s.Crop, Field: "price", Index: i, Reason: "must be a finite number"}
			}
		}
		prices := sortedPrices(s.Series)
		if len(prices) < 2 {
			continue
		}
		slope, ok := Slope(prices)
		if !ok {
			continue
		}
		t := model.CropTrend{
			Crop:         s.Crop,
			Slope:        slope,
			CurrentPrice: prices[len(prices)-1],
			Points:       len(prices),
			Prices:       prices,
		}
		t.MinPrice, t.MaxPrice, t.MeanPrice = priceStats(prices)
		out[model.NormalizeCrop(s.Crop)] = t
	}
	return out, nil
}

// sortedPrices orders points ascending by date and returns their prices.
// Points whose date does not parse go after every dated point, keeping their
// original relative order.
func sortedPrices(points []model.PricePoint) []float64 {
	type dated struct {
		t     time.Time
		ok    bool
		price float64
	}
	ds := make([]dated, len(points))
	for i, p := range points {
		t, ok := p.Time()
		ds[i] = dated{t: t, ok: ok, price: p.Price}
	}
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.t.Before(b.t)
	})
	prices := make([]float64, len(ds))
	for i, d := range ds {
		prices[i] = d.price
	}
	return prices
}

// Slope is the ordinary least-squares slope of ys against x = 0..n-1.
// ok is false when fewer than two samples leave the fit undefined.
func Slope(ys []float64) (float64, bool) {
	n := float64(len(ys))
	if n < 2 {
		return 0, false
	}

	var sumX, sumY, sumXX, sumXY float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / den, true
}

func priceStats(prices []float64) (minv, maxv, mean float64) {
	minv = math.Inf(1)
	maxv = math.Inf(-1)
	sum := 0.0
	for _, v := range prices {
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	return minv, maxv, sum / float64(len(prices))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
