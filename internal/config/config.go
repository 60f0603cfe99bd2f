package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for fibersift.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Ingest  IngestConfig  `mapstructure:"ingest"  yaml:"ingest"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	Assist  AssistConfig  `mapstructure:"assist"  yaml:"assist"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// ScraperConfig controls the browser-based page fetcher.
type ScraperConfig struct {
	BaseURL       string        `mapstructure:"base_url"       yaml:"base_url"`
	Headless      bool          `mapstructure:"headless"       yaml:"headless"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"  yaml:"fetch_timeout"`
	StabilizeWait time.Duration `mapstructure:"stabilize_wait" yaml:"stabilize_wait"`
	UserAgent     string        `mapstructure:"user_agent"     yaml:"user_agent"`
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	// MinDelay and MaxDelay bound the randomized throttle between
	// sequential page fetches. Setting both to zero disables throttling
	// (tests only).
	MinDelay time.Duration `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`

	// OverfetchFactor multiplies the requested count when discovering
	// candidate URLs, compensating for extraction failures.
	OverfetchFactor int `mapstructure:"overfetch_factor" yaml:"overfetch_factor"`

	// DefaultCount is the per-category target when a search query carries
	// no explicit count.
	DefaultCount int `mapstructure:"default_count" yaml:"default_count"`

	// CacheTTL bounds how long a search result batch stays reusable.
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// StoreConfig controls catalog persistence.
type StoreConfig struct {
	// Backend selects the store implementation: "mongo" for production,
	// "memory" as an explicit opt-in demo/test seam.
	Backend    string `mapstructure:"backend"    yaml:"backend"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// AssistConfig controls the text-generation assistant integration.
type AssistConfig struct {
	Enabled     bool    `mapstructure:"enabled"     yaml:"enabled"`
	Provider    string  `mapstructure:"provider"    yaml:"provider"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Endpoint    string  `mapstructure:"endpoint"    yaml:"endpoint"`
	APIKey      string  `mapstructure:"api_key"     yaml:"api_key"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Scraper: ScraperConfig{
			BaseURL:       "https://www.zara.com",
			Headless:      true,
			FetchTimeout:  30 * time.Second,
			StabilizeWait: 300 * time.Millisecond,
			UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Ingest: IngestConfig{
			MinDelay:        1 * time.Second,
			MaxDelay:        3 * time.Second,
			OverfetchFactor: 2,
			DefaultCount:    5,
			CacheTTL:        10 * time.Minute,
		},
		Store: StoreConfig{
			Backend:    "mongo",
			URI:        "mongodb://localhost:27017",
			Database:   "fibersift",
			Collection: "products",
		},
		Assist: AssistConfig{
			Enabled:     false,
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			MaxTokens:   512,
			Temperature: 0.3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
