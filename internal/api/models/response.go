package models

import "farm-market/internal/model"

// Market data sources reported in RankResponse.
const (
	MarketSourceRequest = "request"
	MarketSourceStore   = "store"
	MarketSourceNone    = "none"
)

// RankResponse represents the re-ranked crops
type RankResponse struct {
	Rankings []model.RankedCropEntry `json:"rankings"`
	// MarketAdjusted is false when no market data was available and every
	// score equals the crop's suitability.
	MarketAdjusted bool   `json:"marketAdjusted"`
	MarketSource   string `json:"marketSource"`
	TrendCount     int    `json:"trendCount"`
}

// TrendsResponse represents extracted per-crop trends
type TrendsResponse struct {
	Trends []TrendInfo `json:"trends"`
}

// TrendInfo is one crop's trend, ready for a sparkline
type TrendInfo struct {
	Crop         string    `json:"crop"`
	Points       int       `json:"points"`
	Slope        float64   `json:"slope"`
	CurrentPrice float64   `json:"currentPrice"`
	MinPrice     float64   `json:"minPrice"`
	MaxPrice     float64   `json:"maxPrice"`
	MeanPrice    float64   `json:"meanPrice"`
	MarketScore  float64   `json:"marketScore"`
	Sparkline    []float64 `json:"sparkline"`
}

// ScoringResponse describes the active scoring parameters
type ScoringResponse struct {
	Weights    ScoringOverride `json:"weights"`
	Parameters []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a scoring parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// PricesResponse represents stored price series
type PricesResponse struct {
	MarketTrends []model.MarketTrendSeries `json:"marketTrends"`
}

// RecordPricesResponse reports what was written
type RecordPricesResponse struct {
	Written int `json:"written"`
	Crops   int `json:"crops"`
}

// CropInfo represents a crop catalog entry
type CropInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Unit      string `json:"unit,omitempty"`
	HasPrices bool   `json:"hasPrices"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
