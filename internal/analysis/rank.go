package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"farm-market/internal/model"
)

const (
	DefaultAgronomicWeight = 0.7
	DefaultMarketWeight    = 0.3

	// DefaultSlopeWindow maps slopes in [-10, +10] price units per step linearly
	// onto market scores [0, 1]; steeper slopes clamp.
	DefaultSlopeWindow = 10.0

	// DefaultProfitImpactScale converts a per-step price slope into an absolute
	// adjustment of expected profit per hectare.
	DefaultProfitImpactScale = 1000.0

	// NeutralMarketScore is used for crops without a trend when other crops have one.
	NeutralMarketScore = 0.5
)

const weightSumTolerance = 1e-9

// Weights parameterizes the blend of agronomic suitability and market trend.
type Weights struct {
	Agronomic         float64
	Market            float64
	SlopeWindow       float64
	ProfitImpactScale float64
}

func DefaultWeights() Weights {
	return Weights{
		Agronomic:         DefaultAgronomicWeight,
		Market:            DefaultMarketWeight,
		SlopeWindow:       DefaultSlopeWindow,
		ProfitImpactScale: DefaultProfitImpactScale,
	}
}

func (w Weights) Validate() error {
	if !isFinite(w.Agronomic) || !isFinite(w.Market) || !isFinite(w.SlopeWindow) {
		return errors.New("weights and slope window must be finite")
	}
	if w.Agronomic < 0 || w.Agronomic > 1 || w.Market < 0 || w.Market > 1 {
		return errors.New("agronomic and market weights must be in [0, 1]")
	}
	if math.Abs(w.Agronomic+w.Market-1) > weightSumTolerance {
		return fmt.Errorf("agronomic + market weights must sum to 1, got %g", w.Agronomic+w.Market)
	}
	if w.SlopeWindow <= 0 {
		return errors.New("slope window must be > 0")
	}
	if !isFinite(w.ProfitImpactScale) {
		return errors.New("profit impact scale must be finite")
	}
	return nil
}

// MarketScore maps a slope onto [0, 1]: -window or lower is 0, flat is 0.5,
// +window or higher is 1.
func (w Weights) MarketScore(slope float64) float64 {
	return clamp01((slope + w.SlopeWindow) / (2 * w.SlopeWindow))
}

// Result is the output of AdjustRanking.
type Result struct {
	Rankings []model.RankedCropEntry
	// MarketAdjusted is false when no market series were supplied at all and
	// the scores are the raw suitability values.
	MarketAdjusted bool
	Trends         map[string]model.CropTrend
}

// AdjustRanking re-ranks agronomic candidates using market price trends.
//
// With no market series at all, every entry is passed through in input order
// with Score equal to its suitability and a zero market score. Otherwise each
// crop's score is a weighted blend of suitability and market score, crops
// without a usable trend get NeutralMarketScore, and the output is sorted by
// score descending (stable for ties).
//
// Input entries are never modified; the output holds copies.
func AdjustRanking(ranking []model.AgronomicRankingEntry, trends []model.MarketTrendSeries, w Weights) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	for _, e := range ranking {
		if !isFinite(e.Suitability) {
			return nil, &model.InvalidValueError{Crop: e.CropName, Field: "suitability", Index: -1, Reason: "must be a finite number"}
		}
		if !isFinite(e.ExpectedProfitPerHa) {
			return nil, &model.InvalidValueError{Crop: e.CropName, Field: "expectedProfitPerHa", Index: -1, Reason: "must be a finite number"}
		}
	}

	if len(trends) == 0 {
		out := make([]model.RankedCropEntry, len(ranking))
		for i, e := range ranking {
			out[i] = model.RankedCropEntry{
				AgronomicRankingEntry: e.Clone(),
				Score:                 e.Suitability,
			}
		}
		return &Result{Rankings: out}, nil
	}

	trendMap, err := ExtractTrends(trends)
	if err != nil {
		return nil, err
	}

	out := make([]model.RankedCropEntry, len(ranking))
	for i, e := range ranking {
		out[i] = blend(e, trendMap, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return &Result{Rankings: out, MarketAdjusted: true, Trends: trendMap}, nil
}

func blend(e model.AgronomicRankingEntry, trendMap map[string]model.CropTrend, w Weights) model.RankedCropEntry {
	marketScore := NeutralMarketScore
	marketSlope := 0.0
	priceImpact := 0.0
	if t, ok := trendMap[model.NormalizeCrop(e.CropName)]; ok {
		marketSlope = round2(t.Slope)
		marketScore = w.MarketScore(t.Slope)
		priceImpact = t.Slope * w.ProfitImpactScale
	}

	entry := e.Clone()
	entry.ExpectedProfitPerHa += priceImpact
	return model.RankedCropEntry{
		AgronomicRankingEntry: entry,
		Score:                 round2(e.Suitability*w.Agronomic + marketScore*w.Market),
		MarketScore:           marketScore,
		MarketSlope:           marketSlope,
	}
}

func round2(x float64) float64 {
	r := math.Round(x*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
