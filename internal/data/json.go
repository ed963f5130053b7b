package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"farm-market/internal/model"
)

// LoadRankingJSON reads agronomic ranking entries from either a bare JSON array
// or an object with an "agronomicRanking" array.
func LoadRankingJSON(path string) ([]model.AgronomicRankingEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []model.AgronomicRankingEntry
	if err := decodeListOrWrapped(raw, "agronomicRanking", &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

// LoadTrendsJSON reads market series from either a bare JSON array or an object
// with a "marketTrends" array. A JSON null yields no series.
func LoadTrendsJSON(path string) ([]model.MarketTrendSeries, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var series []model.MarketTrendSeries
	if err := decodeListOrWrapped(raw, "marketTrends", &series); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return series, nil
}

// SaveTrendsJSON writes series in the bare-array form LoadTrendsJSON accepts.
func SaveTrendsJSON(path string, series []model.MarketTrendSeries) error {
	raw, err := json.MarshalIndent(series, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func decodeListOrWrapped(raw []byte, key string, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return err
		}
		inner, ok := wrapper[key]
		if !ok {
			return fmt.Errorf("missing %q", key)
		}
		trimmed = inner
	}
	return json.Unmarshal(trimmed, dst)
}

// GroupByCrop merges series that normalize to the same crop, concatenating
// their points in input order. The display name of the last series is kept.
func GroupByCrop(series []model.MarketTrendSeries) []model.MarketTrendSeries {
	idx := map[string]int{}
	out := []model.MarketTrendSeries{}
	for _, s := range series {
		key := model.NormalizeCrop(s.Crop)
		if i, ok := idx[key]; ok {
			out[i].Crop = s.Crop
			out[i].Series = append(out[i].Series, s.Series...)
			continue
		}
		idx[key] = len(out)
		out = append(out, model.MarketTrendSeries{Crop: s.Crop, Series: append([]model.PricePoint(nil), s.Series...)})
	}
	return out
}
