package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	if cfg.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url is required")
	}
	if _, err := url.ParseRequestURI(cfg.Scraper.BaseURL); err != nil {
		return fmt.Errorf("invalid scraper.base_url %q: %w", cfg.Scraper.BaseURL, err)
	}
	if cfg.Scraper.FetchTimeout <= 0 {
		return fmt.Errorf("scraper.fetch_timeout must be > 0")
	}

	if cfg.Ingest.MinDelay < 0 || cfg.Ingest.MaxDelay < 0 {
		return fmt.Errorf("ingest delays must be >= 0")
	}
	if cfg.Ingest.MaxDelay < cfg.Ingest.MinDelay {
		return fmt.Errorf("ingest.max_delay (%s) must be >= ingest.min_delay (%s)",
			cfg.Ingest.MaxDelay, cfg.Ingest.MinDelay)
	}
	if cfg.Ingest.OverfetchFactor < 1 {
		return fmt.Errorf("ingest.overfetch_factor must be >= 1, got %d", cfg.Ingest.OverfetchFactor)
	}
	if cfg.Ingest.DefaultCount < 1 {
		return fmt.Errorf("ingest.default_count must be >= 1, got %d", cfg.Ingest.DefaultCount)
	}

	switch cfg.Store.Backend {
	case "mongo":
		if cfg.Store.URI == "" {
			return fmt.Errorf("store.uri is required for the mongo backend")
		}
		if cfg.Store.Database == "" || cfg.Store.Collection == "" {
			return fmt.Errorf("store.database and store.collection are required for the mongo backend")
		}
	case "memory":
		// Explicit opt-in seam for demos and tests; nothing to validate.
	default:
		return fmt.Errorf("store.backend must be 'mongo' or 'memory', got %q", cfg.Store.Backend)
	}

	if cfg.Assist.Enabled {
		switch strings.ToLower(cfg.Assist.Provider) {
		case "openai", "ollama", "custom":
		default:
			return fmt.Errorf("assist.provider must be openai/ollama/custom, got %q", cfg.Assist.Provider)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}
