package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PricePoint is one observed market price for a crop.
// On the wire it is the tuple [dateString, price], e.g. ["2024-03-01", 2150.5].
type PricePoint struct {
	Date  string
	Price float64
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Date, p.Price})
}

// UnmarshalJSON accepts only [string, number]. String prices are rejected rather
// than coerced, so a bad upstream payload fails here instead of producing NaN scores.
func (p *PricePoint) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return &InvalidValueError{Field: "series", Index: -1, Reason: "point must be a [date, price] pair"}
	}
	if len(parts) != 2 {
		return &InvalidValueError{Field: "series", Index: -1, Reason: fmt.Sprintf("point must have 2 elements, got %d", len(parts))}
	}
	var out PricePoint
	if err := json.Unmarshal(parts[0], &out.Date); err != nil {
		return &InvalidValueError{Field: "date", Index: -1, Reason: "must be a string"}
	}
	if isNull(parts[1]) {
		return &InvalidValueError{Field: "price", Index: -1, Reason: "is required"}
	}
	if err := json.Unmarshal(parts[1], &out.Price); err != nil {
		return &InvalidValueError{Field: "price", Index: -1, Reason: "must be a number"}
	}
	*p = out
	return nil
}

// Time parses the point's date. ok is false for dates no supported layout accepts.
func (p PricePoint) Time() (time.Time, bool) {
	return ParseDate(p.Date)
}

// MarketTrendSeries is the raw price history for one crop.
type MarketTrendSeries struct {
	Crop   string       `json:"crop"`
	Series []PricePoint `json:"series"`
}

// UnmarshalJSON annotates point decode errors with the crop and point index.
func (s *MarketTrendSeries) UnmarshalJSON(b []byte) error {
	var raw struct {
		Crop   string            `json:"crop"`
		Series []json.RawMessage `json:"series"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := MarketTrendSeries{Crop: raw.Crop, Series: make([]PricePoint, 0, len(raw.Series))}
	for i, r := range raw.Series {
		var p PricePoint
		if err := json.Unmarshal(r, &p); err != nil {
			if ive, ok := err.(*InvalidValueError); ok {
				ive.Crop = raw.Crop
				ive.Index = i
				return ive
			}
			return err
		}
		out.Series = append(out.Series, p)
	}
	*s = out
	return nil
}

// CropTrend is the regression summary of one crop's price series.
type CropTrend struct {
	Crop         string
	Slope        float64
	CurrentPrice float64
	Points       int

	MinPrice  float64
	MaxPrice  float64
	MeanPrice float64

	// Prices is the date-ordered price sequence the slope was fitted on.
	Prices []float64
}

// NormalizeCrop returns the key crop names are matched on.
func NormalizeCrop(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate tries each supported layout in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
