package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("FIBERSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fibersift")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".fibersift"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)

	v.SetDefault("scraper.base_url", cfg.Scraper.BaseURL)
	v.SetDefault("scraper.headless", cfg.Scraper.Headless)
	v.SetDefault("scraper.fetch_timeout", cfg.Scraper.FetchTimeout)
	v.SetDefault("scraper.stabilize_wait", cfg.Scraper.StabilizeWait)
	v.SetDefault("scraper.user_agent", cfg.Scraper.UserAgent)

	v.SetDefault("ingest.min_delay", cfg.Ingest.MinDelay)
	v.SetDefault("ingest.max_delay", cfg.Ingest.MaxDelay)
	v.SetDefault("ingest.overfetch_factor", cfg.Ingest.OverfetchFactor)
	v.SetDefault("ingest.default_count", cfg.Ingest.DefaultCount)
	v.SetDefault("ingest.cache_ttl", cfg.Ingest.CacheTTL)

	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.uri", cfg.Store.URI)
	v.SetDefault("store.database", cfg.Store.Database)
	v.SetDefault("store.collection", cfg.Store.Collection)

	v.SetDefault("assist.enabled", cfg.Assist.Enabled)
	v.SetDefault("assist.provider", cfg.Assist.Provider)
	v.SetDefault("assist.model", cfg.Assist.Model)
	v.SetDefault("assist.endpoint", cfg.Assist.Endpoint)
	v.SetDefault("assist.max_tokens", cfg.Assist.MaxTokens)
	v.SetDefault("assist.temperature", cfg.Assist.Temperature)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
