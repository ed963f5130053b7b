package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"farm-market/internal/analysis"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load scoring parameters from a separate YAML (e.g. examples/scoring/*.yaml).
	// If both ScoringFile and Scoring are provided, Scoring overrides ScoringFile.
	ScoringFile string        `yaml:"scoring_file"`
	Server      ServerConfig  `yaml:"server"`
	Scoring     ScoringConfig `yaml:"scoring"`
	Store       StoreConfig   `yaml:"store"`
	Feed        FeedConfig    `yaml:"feed"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	Env            string   `yaml:"env"`
	StaticDir      string   `yaml:"static_dir"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"` // 0 disables limiting
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

type ScoringConfig struct {
	AgronomicWeight   float64 `yaml:"agronomic_weight"`
	MarketWeight      float64 `yaml:"market_weight"`
	SlopeWindow       float64 `yaml:"slope_window"`
	ProfitImpactScale float64 `yaml:"profit_impact_scale"`
}

type StoreConfig struct {
	Path     string `yaml:"path"`
	CacheTTL string `yaml:"cache_ttl"`
}

type FeedConfig struct {
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Timeout           string  `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	w := analysis.DefaultWeights()
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			StaticDir:      "./web/dist",
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Scoring: ScoringConfig{
			AgronomicWeight:   w.Agronomic,
			MarketWeight:      w.Market,
			SlopeWindow:       w.SlopeWindow,
			ProfitImpactScale: w.ProfitImpactScale,
		},
		Store: StoreConfig{
			Path:     "./data/prices.db",
			CacheTTL: "5m",
		},
		Feed: FeedConfig{
			RequestsPerSecond: 0.5,
			Timeout:           "30s",
		},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the file over Default() and merges scoring_file, but does not validate.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	if c.ScoringFile != "" {
		scoringPath := c.ScoringFile
		if !filepath.IsAbs(scoringPath) {
			// Prefer paths relative to the config file, fall back to cwd.
			cand := filepath.Join(filepath.Dir(path), scoringPath)
			if _, err := os.Stat(cand); err == nil {
				scoringPath = cand
			}
		}
		loaded, err := loadScoringFile(scoringPath)
		if err != nil {
			return nil, err
		}
		var explicit struct {
			Scoring ScoringConfig `yaml:"scoring"`
		}
		if err := yaml.Unmarshal(raw, &explicit); err != nil {
			return nil, err
		}
		c.Scoring = MergeScoring(MergeScoring(Default().Scoring, loaded), explicit.Scoring)
	}
	return c, nil
}

// LoadFromEnv loads FARM_CONFIG if set (Default() otherwise) and applies the
// API_PORT, API_ENV, STATIC_DIR and PRICE_DB overrides.
func LoadFromEnv() (*Config, error) {
	c := Default()
	if path := os.Getenv("FARM_CONFIG"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		c = loaded
	}
	if v := os.Getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("API_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("PRICE_DB"); v != "" {
		c.Store.Path = v
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("server.rate_limit_rps and server.rate_limit_burst must be >= 0")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst == 0 {
		return errors.New("server.rate_limit_burst must be > 0 when rate limiting is enabled")
	}
	if err := c.Scoring.ToWeights().Validate(); err != nil {
		return fmt.Errorf("scoring config invalid: %w", err)
	}
	if _, err := c.Store.TTL(); err != nil {
		return fmt.Errorf("store.cache_ttl invalid: %w", err)
	}
	if _, err := c.Feed.TimeoutDuration(); err != nil {
		return fmt.Errorf("feed.timeout invalid: %w", err)
	}
	if c.Feed.RequestsPerSecond < 0 {
		return errors.New("feed.requests_per_second must be >= 0")
	}
	return nil
}

// Production reports whether the server runs in release mode.
func (s ServerConfig) Production() bool {
	return s.Env == "production"
}

func (s ScoringConfig) ToWeights() analysis.Weights {
	return analysis.Weights{
		Agronomic:         s.AgronomicWeight,
		Market:            s.MarketWeight,
		SlopeWindow:       s.SlopeWindow,
		ProfitImpactScale: s.ProfitImpactScale,
	}
}

// TTL parses CacheTTL; empty means caching is off.
func (s StoreConfig) TTL() (time.Duration, error) {
	if s.CacheTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(s.CacheTTL)
}

func (f FeedConfig) TimeoutDuration() (time.Duration, error) {
	if f.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(f.Timeout)
}

type scoringFileWrapper struct {
	Scoring ScoringConfig `yaml:"scoring"`
}

func loadScoringFile(path string) (ScoringConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ScoringConfig{}, err
	}
	var w scoringFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return ScoringConfig{}, err
	}
	return w.Scoring, nil
}

// MergeScoring overlays non-zero fields from override onto base.
// This is used when loading a scoring file and when a request carries its own weights.
func MergeScoring(base, override ScoringConfig) ScoringConfig {
	out := base
	// Weights are overlaid as a pair so a single override cannot break their sum.
	if override.AgronomicWeight != 0 || override.MarketWeight != 0 {
		out.AgronomicWeight = override.AgronomicWeight
		out.MarketWeight = override.MarketWeight
	}
	if override.SlopeWindow != 0 {
		out.SlopeWindow = override.SlopeWindow
	}
	if override.ProfitImpactScale != 0 {
		out.ProfitImpactScale = override.ProfitImpactScale
	}
	return out
}
