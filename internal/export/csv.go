package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"farm-market/internal/model"
)

// WriteRankingCSV writes one row per ranked crop, best first.
func WriteRankingCSV(path string, entries []model.RankedCropEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"rank",
		"crop",
		"suitability",
		"market_score",
		"market_slope",
		"score",
		"expected_profit_per_ha",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, e := range entries {
		row := []string{
			strconv.Itoa(i + 1),
			e.CropName,
			fmtFloat(e.Suitability),
			fmtFloat(e.MarketScore),
			fmtFloat(e.MarketSlope),
			fmtFloat(e.Score),
			fmtFloat(e.ExpectedProfitPerHa),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return finish(f, w)
}

// WriteTrendsCSV writes one row per crop trend in the given order.
func WriteTrendsCSV(path string, trends []model.CropTrend) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"crop", "points", "slope", "current_price", "min_price", "max_price", "mean_price"}); err != nil {
		return err
	}
	for _, t := range trends {
		row := []string{
			t.Crop,
			strconv.Itoa(t.Points),
			fmtFloat(t.Slope),
			fmtFloat(t.CurrentPrice),
			fmtFloat(t.MinPrice),
			fmtFloat(t.MaxPrice),
			fmtFloat(t.MeanPrice),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return finish(f, w)
}

// finish flushes w and closes f, reporting the first write error.
func finish(f *os.File, w *csv.Writer) error {
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
