package model

import (
	"bytes"
	"encoding/json"
)

// AgronomicRankingEntry is one crop candidate produced by the agronomic ranking provider.
// Fields other than the three below (image, metadata, ...) are kept in Extra and
// re-emitted untouched.
type AgronomicRankingEntry struct {
	CropName            string
	Suitability         float64
	ExpectedProfitPerHa float64
	Extra               map[string]json.RawMessage
}

const (
	keyCropName    = "cropName"
	keySuitability = "suitability"
	keyProfit      = "expectedProfitPerHa"
	keyScore       = "score"
	keyMarketScore = "marketScore"
	keyMarketSlope = "marketSlope"
)

func (e *AgronomicRankingEntry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out AgronomicRankingEntry
	if v, ok := raw[keyCropName]; ok {
		if err := json.Unmarshal(v, &out.CropName); err != nil {
			return &InvalidValueError{Field: keyCropName, Index: -1, Reason: "must be a string"}
		}
		delete(raw, keyCropName)
	}

	v, ok := raw[keySuitability]
	if !ok || isNull(v) {
		return &InvalidValueError{Crop: out.CropName, Field: keySuitability, Index: -1, Reason: "is required"}
	}
	if err := json.Unmarshal(v, &out.Suitability); err != nil {
		return &InvalidValueError{Crop: out.CropName, Field: keySuitability, Index: -1, Reason: "must be a number"}
	}
	delete(raw, keySuitability)

	if v, ok := raw[keyProfit]; ok {
		if !isNull(v) {
			if err := json.Unmarshal(v, &out.ExpectedProfitPerHa); err != nil {
				return &InvalidValueError{Crop: out.CropName, Field: keyProfit, Index: -1, Reason: "must be a number"}
			}
		}
		delete(raw, keyProfit)
	}

	if len(raw) > 0 {
		out.Extra = raw
	}
	*e = out
	return nil
}

func (e AgronomicRankingEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.fields())
}

func (e AgronomicRankingEntry) fields() map[string]any {
	m := make(map[string]any, len(e.Extra)+3)
	for k, v := range e.Extra {
		m[k] = v
	}
	m[keyCropName] = e.CropName
	m[keySuitability] = e.Suitability
	m[keyProfit] = e.ExpectedProfitPerHa
	return m
}

// Clone returns a copy that shares no mutable state with e.
func (e AgronomicRankingEntry) Clone() AgronomicRankingEntry {
	out := e
	if e.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// RankedCropEntry is an agronomic entry after market adjustment.
// ExpectedProfitPerHa on the embedded entry already includes the price impact.
type RankedCropEntry struct {
	AgronomicRankingEntry
	Score       float64
	MarketScore float64
	MarketSlope float64
}

func (r RankedCropEntry) MarshalJSON() ([]byte, error) {
	m := r.fields()
	m[keyScore] = r.Score
	m[keyMarketScore] = r.MarketScore
	m[keyMarketSlope] = r.MarketSlope
	return json.Marshal(m)
}

func (r *RankedCropEntry) UnmarshalJSON(b []byte) error {
	var base AgronomicRankingEntry
	if err := json.Unmarshal(b, &base); err != nil {
		return err
	}
	out := RankedCropEntry{AgronomicRankingEntry: base}
	for key, dst := range map[string]*float64{
		keyScore:       &out.Score,
		keyMarketScore: &out.MarketScore,
		keyMarketSlope: &out.MarketSlope,
	} {
		v, ok := base.Extra[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return &InvalidValueError{Crop: base.CropName, Field: key, Index: -1, Reason: "must be a number"}
		}
		delete(out.Extra, key)
	}
	if len(out.Extra) == 0 {
		out.Extra = nil
	}
	*r = out
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
