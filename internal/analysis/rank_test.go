package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-market/internal/model"
)

func entry(name string, suitability, profit float64) model.AgronomicRankingEntry {
	return model.AgronomicRankingEntry{CropName: name, Suitability: suitability, ExpectedProfitPerHa: profit}
}

func TestAdjustRanking_NoMarketDataPassesThrough(t *testing.T) {
	ranking := []model.AgronomicRankingEntry{
		entry("Rice", 0.4, 1000),
		entry("Wheat", 0.9, 2000),
		entry("Maize", 0.6, 1500),
	}

	for name, trends := range map[string][]model.MarketTrendSeries{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := AdjustRanking(ranking, trends, DefaultWeights())
			require.NoError(t, err)
			assert.False(t, res.MarketAdjusted)
			require.Len(t, res.Rankings, 3)

			for i, r := range res.Rankings {
				assert.Equal(t, ranking[i].CropName, r.CropName, "input order is kept")
				assert.Equal(t, ranking[i].Suitability, r.Score)
				assert.Equal(t, 0.0, r.MarketScore)
				assert.Equal(t, 0.0, r.MarketSlope)
				assert.Equal(t, ranking[i].ExpectedProfitPerHa, r.ExpectedProfitPerHa)
			}
		})
	}
}

func TestAdjustRanking_NeutralScoreForCropWithoutSeries(t *testing.T) {
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Wheat", 0.5, 100), entry("Barley", 0.5, 100)},
		[]model.MarketTrendSeries{series("wheat", "2024-01-01", 10, "2024-01-02", 12)},
		DefaultWeights(),
	)
	require.NoError(t, err)
	assert.True(t, res.MarketAdjusted)

	barley := find(t, res.Rankings, "Barley")
	assert.Equal(t, 0.5, barley.MarketScore)
	assert.Equal(t, 0.0, barley.MarketSlope)
	assert.Equal(t, 100.0, barley.ExpectedProfitPerHa)
	assert.Equal(t, 0.5, barley.Score)
}

func TestAdjustRanking_SinglePointSeriesIsNeutral(t *testing.T) {
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Onion", 1, 0)},
		[]model.MarketTrendSeries{series("onion", "2024-01-01", 10)},
		DefaultWeights(),
	)
	require.NoError(t, err)
	assert.True(t, res.MarketAdjusted)
	assert.Equal(t, 0.5, res.Rankings[0].MarketScore)
	assert.Equal(t, 0.85, res.Rankings[0].Score)
}

func TestAdjustRanking_RisingTrend(t *testing.T) {
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Tomato", 0, 500)},
		[]model.MarketTrendSeries{series("Tomato",
			"2024-01-01", 10, "2024-01-02", 20, "2024-01-03", 30, "2024-01-04", 40)},
		DefaultWeights(),
	)
	require.NoError(t, err)

	r := res.Rankings[0]
	assert.Equal(t, 1.0, r.MarketScore)
	assert.Equal(t, 10.0, r.MarketSlope)
	assert.Equal(t, 0.3, r.Score)
	assert.Equal(t, 500+10*DefaultProfitImpactScale, r.ExpectedProfitPerHa)
}

func TestAdjustRanking_FallingTrend(t *testing.T) {
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("tomato", 1, 50000)},
		[]model.MarketTrendSeries{series("TOMATO",
			"2024-01-01", 40, "2024-01-02", 30, "2024-01-03", 20, "2024-01-04", 10)},
		DefaultWeights(),
	)
	require.NoError(t, err)

	r := res.Rankings[0]
	assert.Equal(t, 0.0, r.MarketScore)
	assert.Equal(t, -10.0, r.MarketSlope)
	assert.Equal(t, 0.7, r.Score)
	assert.Equal(t, 40000.0, r.ExpectedProfitPerHa)
}

func TestAdjustRanking_PartialSlopeAndRounding(t *testing.T) {
	// slope of [5, 3] is -2 => market score (−2+10)/20 = 0.4
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Millet", 0.8, 3000)},
		[]model.MarketTrendSeries{series("millet", "2024-01-01", 5, "2024-01-08", 3)},
		DefaultWeights(),
	)
	require.NoError(t, err)

	r := res.Rankings[0]
	assert.InDelta(t, 0.4, r.MarketScore, 1e-12)
	assert.Equal(t, -2.0, r.MarketSlope)
	assert.Equal(t, 0.68, r.Score)
	assert.Equal(t, 1000.0, r.ExpectedProfitPerHa)
}

func TestAdjustRanking_SlopeIsRoundedForOutputOnly(t *testing.T) {
	// slope of [0, 1/3] is 0.3333...; the profit impact uses the unrounded value
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Pea", 0.5, 0)},
		[]model.MarketTrendSeries{series("pea", "2024-01-01", 0, "2024-01-02", 1.0/3)},
		DefaultWeights(),
	)
	require.NoError(t, err)

	r := res.Rankings[0]
	assert.Equal(t, 0.33, r.MarketSlope)
	assert.InDelta(t, 1000.0/3, r.ExpectedProfitPerHa, 1e-9)
}

func TestAdjustRanking_SortsDescending(t *testing.T) {
	ranking := []model.AgronomicRankingEntry{
		entry("A", 0.2, 0), // 0.29
		entry("B", 1.0, 0), // 0.85
		entry("C", 0.5, 0), // 0.5
		entry("D", 0.5, 0), // 0.5, tie keeps C before D
	}
	res, err := AdjustRanking(ranking, []model.MarketTrendSeries{series("other", "2024-01-01", 1, "2024-01-02", 2)}, DefaultWeights())
	require.NoError(t, err)

	var names []string
	var scores []float64
	for _, r := range res.Rankings {
		names = append(names, r.CropName)
		scores = append(scores, r.Score)
	}
	assert.Equal(t, []string{"B", "C", "D", "A"}, names)
	assert.Equal(t, []float64{0.85, 0.5, 0.5, 0.29}, scores)
}

func TestAdjustRanking_Deterministic(t *testing.T) {
	ranking := []model.AgronomicRankingEntry{entry("Wheat", 0.7, 100), entry("Rice", 0.6, 200), entry("Oats", 0.65, 50)}
	trends := []model.MarketTrendSeries{
		series("wheat", "2024-01-03", 12, "2024-01-01", 10, "2024-01-02", 11),
		series("rice", "2024-01-01", 9, "2024-01-02", 7),
	}

	first, err := AdjustRanking(ranking, trends, DefaultWeights())
	require.NoError(t, err)
	second, err := AdjustRanking(ranking, trends, DefaultWeights())
	require.NoError(t, err)

	a, err := json.Marshal(first.Rankings)
	require.NoError(t, err)
	b, err := json.Marshal(second.Rankings)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAdjustRanking_DoesNotMutateInput(t *testing.T) {
	ranking := []model.AgronomicRankingEntry{{
		CropName:            "Wheat",
		Suitability:         0.9,
		ExpectedProfitPerHa: 1200,
		Extra:               map[string]json.RawMessage{"image": json.RawMessage(`"wheat.png"`)},
	}}
	trends := []model.MarketTrendSeries{series("wheat", "2024-01-01", 10, "2024-01-02", 15)}

	res, err := AdjustRanking(ranking, trends, DefaultWeights())
	require.NoError(t, err)

	res.Rankings[0].Extra["image"] = json.RawMessage(`"changed.png"`)

	assert.Equal(t, 0.9, ranking[0].Suitability)
	assert.Equal(t, 1200.0, ranking[0].ExpectedProfitPerHa)
	assert.Equal(t, `"wheat.png"`, string(ranking[0].Extra["image"]))
	assert.Equal(t, 1200+5*DefaultProfitImpactScale, res.Rankings[0].ExpectedProfitPerHa)
}

func TestAdjustRanking_RejectsNonFiniteSuitability(t *testing.T) {
	_, err := AdjustRanking([]model.AgronomicRankingEntry{entry("Rice", math.NaN(), 0)}, nil, DefaultWeights())

	var ive *model.InvalidValueError
	require.True(t, errors.As(err, &ive))
	assert.Equal(t, "suitability", ive.Field)
	assert.Equal(t, "Rice", ive.Crop)
}

func TestAdjustRanking_RejectsNonFiniteProfit(t *testing.T) {
	for name, profit := range map[string]float64{"nan": math.NaN(), "+inf": math.Inf(1), "-inf": math.Inf(-1)} {
		t.Run(name, func(t *testing.T) {
			_, err := AdjustRanking([]model.AgronomicRankingEntry{entry("Rice", 0.5, profit)}, nil, DefaultWeights())

			var ive *model.InvalidValueError
			require.True(t, errors.As(err, &ive))
			assert.Equal(t, "expectedProfitPerHa", ive.Field)
			assert.Equal(t, "Rice", ive.Crop)
		})
	}
}

func TestAdjustRanking_RejectsNonFiniteWeights(t *testing.T) {
	w := DefaultWeights()
	w.SlopeWindow = math.Inf(1)
	_, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Rice", 0.5, 0)},
		[]model.MarketTrendSeries{series("rice", "2024-01-01", 1, "2024-01-02", 2)},
		w,
	)
	assert.Error(t, err)
}

func TestAdjustRanking_TinyNegativeSlopeIsPlainZero(t *testing.T) {
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Rice", 0.5, 0)},
		[]model.MarketTrendSeries{series("rice", "2024-01-01", 1.0, "2024-01-02", 0.999)},
		DefaultWeights(),
	)
	require.NoError(t, err)

	r := res.Rankings[0]
	assert.Equal(t, 0.0, r.MarketSlope)
	assert.False(t, math.Signbit(r.MarketSlope))

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"marketSlope":0`)
	assert.NotContains(t, string(raw), `"marketSlope":-0`)
}

func TestAdjustRanking_CustomWeights(t *testing.T) {
	w := Weights{Agronomic: 0.5, Market: 0.5, SlopeWindow: 5, ProfitImpactScale: 10}
	res, err := AdjustRanking(
		[]model.AgronomicRankingEntry{entry("Bean", 0.4, 0)},
		[]model.MarketTrendSeries{series("bean", "2024-01-01", 0, "2024-01-02", 5)},
		w,
	)
	require.NoError(t, err)

	r := res.Rankings[0]
	assert.Equal(t, 1.0, r.MarketScore)
	assert.Equal(t, 0.7, r.Score)
	assert.Equal(t, 50.0, r.ExpectedProfitPerHa)
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"defaults", DefaultWeights(), false},
		{"sum not one", Weights{Agronomic: 0.6, Market: 0.3, SlopeWindow: 10}, true},
		{"negative", Weights{Agronomic: 1.2, Market: -0.2, SlopeWindow: 10}, true},
		{"zero window", Weights{Agronomic: 0.7, Market: 0.3}, true},
		{"all agronomic", Weights{Agronomic: 1, Market: 0, SlopeWindow: 1}, false},
		{"infinite window", Weights{Agronomic: 0.7, Market: 0.3, SlopeWindow: math.Inf(1), ProfitImpactScale: 1000}, true},
		{"nan weights", Weights{Agronomic: math.NaN(), Market: math.NaN(), SlopeWindow: 10, ProfitImpactScale: 1000}, true},
		{"nan window", Weights{Agronomic: 0.7, Market: 0.3, SlopeWindow: math.NaN()}, true},
		{"infinite impact", Weights{Agronomic: 0.7, Market: 0.3, SlopeWindow: 10, ProfitImpactScale: math.Inf(-1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := AdjustRanking(nil, nil, Weights{})
	assert.Error(t, err)
}

func find(t *testing.T, entries []model.RankedCropEntry, name string) model.RankedCropEntry {
	t.Helper()
	for _, e := range entries {
		if e.CropName == name {
			return e
		}
	}
	t.Fatalf("crop %q not in rankings", name)
	return model.RankedCropEntry{}
}
