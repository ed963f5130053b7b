package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"farm-market/internal/analysis"
	"farm-market/internal/config"
	"farm-market/internal/export"
	"farm-market/internal/model"
)

// Demo:
// - Load an agronomic ranking and market trends (built-in sample unless --data is given)
// - Extract per-crop price trends
// - Blend them into the ranking to show how the pieces fit together
func main() {
	dataPath := flag.String("data", "", `Optional JSON file {"agronomicRanking": [...], "marketTrends": [...]}`)
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	outCSV := flag.String("out", "", "Optional path to write ranking CSV (e.g. results/ranking.csv)")
	flag.Parse()

	input := sampleInput()
	if *dataPath != "" {
		raw, err := os.ReadFile(*dataPath)
		if err != nil {
			panic(err)
		}
		input = demoInput{}
		if err := json.Unmarshal(raw, &input); err != nil {
			panic(err)
		}
	}
	if len(input.AgronomicRanking) == 0 {
		panic("no agronomicRanking in input")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			panic(err)
		}
	}
	w := cfg.Scoring.ToWeights()

	fmt.Printf("Loaded %d candidate crops and %d price series\n", len(input.AgronomicRanking), len(input.MarketTrends))
	fmt.Printf("Weights: agronomic=%.2f market=%.2f window=±%.0f impact=%.0f/unit slope\n\n",
		w.Agronomic, w.Market, w.SlopeWindow, w.ProfitImpactScale)

	trends, err := analysis.ExtractTrends(input.MarketTrends)
	if err != nil {
		panic(err)
	}
	keys := make([]string, 0, len(trends))
	for k := range trends {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t := trends[k]
		fmt.Printf("%-10s points=%2d  slope=%7.3f  current=%8.2f  marketScore=%.3f  prices=%v\n",
			t.Crop, t.Points, t.Slope, t.CurrentPrice, w.MarketScore(t.Slope), t.Prices)
	}
	fmt.Println()

	result, err := analysis.AdjustRanking(input.AgronomicRanking, input.MarketTrends, w)
	if err != nil {
		panic(err)
	}

	for i, r := range result.Rankings {
		fmt.Printf(
			"%d. %-10s suitability=%.2f  market=%.3f  slope=%6.2f  score=%.2f  profit/ha=%10.2f\n",
			i+1,
			r.CropName,
			r.Suitability,
			r.MarketScore,
			r.MarketSlope,
			r.Score,
			r.ExpectedProfitPerHa,
		)
	}

	if *outCSV != "" {
		if err := export.WriteRankingCSV(*outCSV, result.Rankings); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	fmt.Printf("\nDone. Market adjusted=%v\n", result.MarketAdjusted)
}

type demoInput struct {
	AgronomicRanking []model.AgronomicRankingEntry `json:"agronomicRanking"`
	MarketTrends     []model.MarketTrendSeries     `json:"marketTrends"`
}

func sampleInput() demoInput {
	return demoInput{
		AgronomicRanking: []model.AgronomicRankingEntry{
			{CropName: "Rice", Suitability: 0.82, ExpectedProfitPerHa: 42000},
			{CropName: "Wheat", Suitability: 0.78, ExpectedProfitPerHa: 38000},
			{CropName: "Onion", Suitability: 0.65, ExpectedProfitPerHa: 55000},
			{CropName: "Chickpea", Suitability: 0.60, ExpectedProfitPerHa: 30000},
		},
		MarketTrends: []model.MarketTrendSeries{
			{Crop: "rice", Series: []model.PricePoint{
				{Date: "2024-01-01", Price: 2100}, {Date: "2024-02-01", Price: 2095},
				{Date: "2024-03-01", Price: 2090}, {Date: "2024-04-01", Price: 2082},
			}},
			{Crop: "wheat", Series: []model.PricePoint{
				{Date: "2024-01-01", Price: 2250}, {Date: "2024-02-01", Price: 2256},
				{Date: "2024-03-01", Price: 2263}, {Date: "2024-04-01", Price: 2270},
			}},
			{Crop: "onion", Series: []model.PricePoint{
				{Date: "2024-01-01", Price: 1800}, {Date: "2024-02-01", Price: 1750},
				{Date: "2024-03-01", Price: 1690}, {Date: "2024-04-01", Price: 1620},
			}},
		},
	}
}
