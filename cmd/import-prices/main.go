package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"farm-market/internal/config"
	"farm-market/internal/data"
	"farm-market/internal/model"
	"farm-market/internal/store"

	"golang.org/x/time/rate"
)

func main() {
	var (
		cfgPath     = flag.String("config", "", "Path to YAML config (default: FARM_CONFIG or built-in defaults)")
		dbPath      = flag.String("db", "", "Price database path (default: store.path from config)")
		filePath    = flag.String("file", "", "Import series from this JSON file instead of the feed")
		catalogPath = flag.String("catalog", "", "Crop catalog file (default: ./data/crops.json)")
		cropsFlag   = flag.String("crops", "", "Comma-separated crops to fetch (default: every catalog crop)")
		days        = flag.Int("days", 90, "Number of days of history to fetch")
		replace     = flag.Bool("replace", false, "Drop stored history of imported crops first")
	)
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath == "" {
		*dbPath = cfg.Store.Path
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var series []model.MarketTrendSeries
	if *filePath != "" {
		series, err = data.LoadTrendsJSON(*filePath)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", *filePath, err)
		}
		fmt.Printf("Loaded %d series from %s\n", len(series), *filePath)
	} else {
		crops, err := cropList(*cropsFlag, *catalogPath)
		if err != nil {
			log.Fatalf("Failed to load crop catalog: %v", err)
		}
		series, err = fetchFromFeed(ctx, cfg.Feed, crops, *days)
		if err != nil {
			log.Fatalf("Failed to fetch prices: %v", err)
		}
	}
	series = data.GroupByCrop(series)
	if len(series) == 0 {
		fmt.Println("Nothing to import")
		return
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open price store: %v", err)
	}
	defer db.Close()

	write := db.AddSeries
	if *replace {
		write = db.ReplaceSeries
	}
	n, err := write(ctx, series)
	if err != nil {
		log.Fatalf("Failed to store prices: %v", err)
	}

	fmt.Printf("Stored %d price points for %d crops in %s\n", n, len(series), *dbPath)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// cropList returns the crops named on the command line, or every crop in the
// catalog. A missing catalog file falls back to the built-in list.
func cropList(flagValue, catalogPath string) ([]string, error) {
	if flagValue != "" {
		var out []string
		for _, c := range strings.Split(flagValue, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
		return out, nil
	}

	if catalogPath == "" {
		catalogPath = data.GetDefaultCatalogPath()
	}
	catalog, err := data.LoadCatalog(catalogPath)
	if errors.Is(err, os.ErrNotExist) {
		catalog = data.DefaultCatalog()
		fmt.Printf("No catalog at %s, using %d built-in crops\n", catalogPath, len(catalog.Crops))
	} else if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(catalog.Crops))
	for _, c := range catalog.Crops {
		out = append(out, c.ID)
	}
	return out, nil
}

// fetchFromFeed queries each crop in turn. A failed crop is reported and
// skipped; an exhausted rate limit or rejected key stops the run.
func fetchFromFeed(ctx context.Context, cfg config.FeedConfig, crops []string, days int) ([]model.MarketTrendSeries, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("feed.base_url is not configured")
	}
	apiKey := os.Getenv("PRICE_FEED_API_KEY")
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	opts := data.FeedOptions{APIKey: apiKey, Timeout: timeout}
	if cfg.RequestsPerSecond > 0 {
		opts.RateLimit = rate.Limit(cfg.RequestsPerSecond)
	}
	client := data.NewFeedClient(cfg.BaseURL, opts)

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	fmt.Printf("Fetching %d crops from %s to %s...\n", len(crops), start.Format("2006-01-02"), end.Format("2006-01-02"))

	var out []model.MarketTrendSeries
	ok := 0
	for _, crop := range crops {
		s, err := client.FetchSeries(ctx, crop, start, end)
		if err != nil {
			var fe *data.FeedError
			if errors.As(err, &fe) && (fe.Code == "UNAUTHORIZED" || fe.Code == "RATE_LIMIT_EXCEEDED") {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fmt.Printf("  Warning: failed to fetch %s: %v\n", crop, err)
			continue
		}
		if len(s.Series) == 0 {
			fmt.Printf("  No prices for %s in date range\n", crop)
			continue
		}
		out = append(out, *s)
		ok++
		fmt.Printf("  Fetched %s: %d points\n", crop, len(s.Series))
	}

	fmt.Printf("Successfully fetched %d/%d crops\n", ok, len(crops))
	return out, nil
}
