package models

import "farm-market/internal/model"

// RankRequest represents the request body for re-ranking crops
type RankRequest struct {
	AgronomicRanking []model.AgronomicRankingEntry `json:"agronomicRanking" binding:"required"`
	// MarketTrends may be null or empty; the ranking is then returned as-is
	// unless UseStoredMarket pulls series from the price store.
	MarketTrends    []model.MarketTrendSeries `json:"marketTrends"`
	UseStoredMarket bool                      `json:"useStoredMarket,omitempty"`
	Weights         *ScoringOverride          `json:"weights,omitempty"`
	Limit           int                       `json:"limit,omitempty" binding:"min=0"` // 0 = all
}

// ScoringOverride replaces the server's scoring parameters for one request.
// Zero fields keep the server value; the two weights are replaced together.
type ScoringOverride struct {
	AgronomicWeight   float64 `json:"agronomicWeight"`
	MarketWeight      float64 `json:"marketWeight"`
	SlopeWindow       float64 `json:"slopeWindow"`
	ProfitImpactScale float64 `json:"profitImpactScale"`
}

// TrendsRequest represents the request body for trend extraction
type TrendsRequest struct {
	MarketTrends []model.MarketTrendSeries `json:"marketTrends" binding:"required"`
}

// RecordPricesRequest represents price observations to store
type RecordPricesRequest struct {
	MarketTrends []model.MarketTrendSeries `json:"marketTrends" binding:"required"`
	Replace      bool                      `json:"replace,omitempty"` // drop stored history of these crops first
}

// PricesQuery selects stored series
type PricesQuery struct {
	Crops string `form:"crops,omitempty"` // comma-separated; empty = all
}

// CropsQuery filters the crop catalog
type CropsQuery struct {
	Category string `form:"category,omitempty"`
}
