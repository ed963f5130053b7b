package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"farm-market/internal/analysis"
	"farm-market/internal/config"
	"farm-market/internal/data"
	"farm-market/internal/export"
	"farm-market/internal/model"
	"farm-market/internal/store"

	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "rank":
		cmdRank(os.Args[2:])
	case "trends":
		cmdTrends(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli rank --ranking examples/ranking.json --trends examples/trends.json --config examples/config.yaml --out results/ranking.csv")
	fmt.Println("  cli rank --ranking examples/ranking.json --store data/prices.db")
	fmt.Println("  cli trends --trends examples/trends.json,more/ --out results/trends.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --trends takes comma-separated JSON files or directories; series for the same crop are merged")
	fmt.Println("  - without market data the agronomic ranking is printed unchanged")
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	rankingPath := fs.String("ranking", "", "Path to agronomic ranking JSON")
	trendsPaths := fs.String("trends", "", "Comma-separated market trend JSON paths or directories")
	storePath := fs.String("store", "", "Optional: read market trends from this price database instead")
	cfgPath := fs.String("config", "", "Optional: path to YAML config")
	outPath := fs.String("out", "", "Optional: write the ranking as CSV")
	n := fs.Int("n", 0, "Optional: show only the top N crops (0=all)")
	_ = fs.Parse(args)

	if *rankingPath == "" {
		fmt.Println("--ranking is required")
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fail(err)
		}
	}

	var (
		ranking []model.AgronomicRankingEntry
		trends  []model.MarketTrendSeries
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		ranking, err = data.LoadRankingJSON(*rankingPath)
		return err
	})
	g.Go(func() error {
		var err error
		switch {
		case *storePath != "":
			trends, err = loadStored(*storePath)
		case *trendsPaths != "":
			trends, err = loadTrends(splitPaths(*trendsPaths))
		}
		return err
	})
	if err := g.Wait(); err != nil {
		fail(err)
	}

	res, err := analysis.AdjustRanking(ranking, trends, cfg.Scoring.ToWeights())
	if err != nil {
		fail(err)
	}

	rows := res.Rankings
	if *n > 0 && *n < len(rows) {
		rows = rows[:*n]
	}

	if !res.MarketAdjusted {
		fmt.Println("no market data: showing agronomic ranking unchanged")
	}
	fmt.Printf("%-4s %-16s %-12s %-8s %-8s %-8s %-14s\n", "rank", "crop", "suitability", "market", "slope", "score", "profit/ha")
	for i, r := range rows {
		fmt.Printf(
			"%-4d %-16s %-12.3f %-8.3f %-8.2f %-8.3f %-14.2f\n",
			i+1,
			r.CropName,
			r.Suitability,
			r.MarketScore,
			r.MarketSlope,
			r.Score,
			r.ExpectedProfitPerHa,
		)
	}

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			fail(err)
		}
		if err := export.WriteRankingCSV(*outPath, rows); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), *outPath)
	}
}

func cmdTrends(args []string) {
	fs := flag.NewFlagSet("trends", flag.ExitOnError)
	trendsPaths := fs.String("trends", "", "Comma-separated market trend JSON paths or directories")
	storePath := fs.String("store", "", "Optional: read market trends from this price database instead")
	cfgPath := fs.String("config", "", "Optional: path to YAML config")
	outPath := fs.String("out", "", "Optional: write the trends as CSV")
	_ = fs.Parse(args)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fail(err)
		}
	}

	var (
		series []model.MarketTrendSeries
		err    error
	)
	switch {
	case *storePath != "":
		series, err = loadStored(*storePath)
	case *trendsPaths != "":
		series, err = loadTrends(splitPaths(*trendsPaths))
	default:
		fmt.Println("--trends or --store is required")
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}

	trendMap, err := analysis.ExtractTrends(series)
	if err != nil {
		fail(err)
	}
	trends := make([]model.CropTrend, 0, len(trendMap))
	for _, t := range trendMap {
		trends = append(trends, t)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Slope > trends[j].Slope })

	w := cfg.Scoring.ToWeights()
	fmt.Printf("%-16s %-6s %-10s %-10s %-10s %-8s\n", "crop", "points", "slope", "current", "mean", "market")
	for _, t := range trends {
		fmt.Printf("%-16s %-6d %-10.3f %-10.2f %-10.2f %-8.3f\n",
			t.Crop, t.Points, t.Slope, t.CurrentPrice, t.MeanPrice, w.MarketScore(t.Slope))
	}

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			fail(err)
		}
		if err := export.WriteTrendsCSV(*outPath, trends); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(trends), *outPath)
	}
}

// loadTrends reads every JSON file named in paths (directories are scanned one
// level deep) in parallel and merges the series per crop.
func loadTrends(paths []string) ([]model.MarketTrendSeries, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}

	loaded := make([][]model.MarketTrendSeries, len(files))
	g := new(errgroup.Group)
	g.SetLimit(8)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			s, err := data.LoadTrendsJSON(f)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			loaded[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.MarketTrendSeries
	for _, s := range loaded {
		all = append(all, s...)
	}
	return data.GroupByCrop(all), nil
}

func loadStored(path string) ([]model.MarketTrendSeries, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Series(context.Background(), nil)
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
