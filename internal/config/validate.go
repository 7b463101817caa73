package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Scraper.BaseURL); err != nil {
		return fmt.Errorf("scraper.base_url: %w", err)
	}
	if cfg.Scraper.Platform == "" {
		return fmt.Errorf("scraper.platform must not be empty")
	}
	if cfg.Scraper.MaxPages < 1 {
		return fmt.Errorf("scraper.max_pages must be >= 1, got %d", cfg.Scraper.MaxPages)
	}
	if cfg.Scraper.NavTimeout <= 0 {
		return fmt.Errorf("scraper.nav_timeout must be > 0")
	}
	if cfg.Scraper.MinPageDelay < 0 || cfg.Scraper.MaxPageDelay < cfg.Scraper.MinPageDelay {
		return fmt.Errorf("scraper page delays must satisfy 0 <= min <= max")
	}

	if cfg.Extract.CardSelector == "" {
		return fmt.Errorf("extract.card_selector must not be empty")
	}
	if cfg.Extract.MinTitleLen < 0 {
		return fmt.Errorf("extract.min_title_len must be >= 0, got %d", cfg.Extract.MinTitleLen)
	}
	if cfg.Extract.MaxKeywordOffset < 0 {
		return fmt.Errorf("extract.max_keyword_offset must be >= 0, got %d", cfg.Extract.MaxKeywordOffset)
	}
	if cfg.Extract.Workers < 1 {
		return fmt.Errorf("extract.workers must be >= 1, got %d", cfg.Extract.Workers)
	}

	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	if cfg.Cache.RawDir == "" || cfg.Cache.ProcessedDir == "" {
		return fmt.Errorf("cache.raw_dir and cache.processed_dir must not be empty")
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
	}
	if cfg.API.DefaultLimit < 1 || cfg.API.DefaultLimit > cfg.API.MaxLimit {
		return fmt.Errorf("api.default_limit must be in 1..max_limit, got %d", cfg.API.DefaultLimit)
	}
	if cfg.API.MaxLimit < 1 {
		return fmt.Errorf("api.max_limit must be >= 1, got %d", cfg.API.MaxLimit)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.TopN < 1 {
			return fmt.Errorf("ai.top_n must be >= 1, got %d", cfg.AI.TopN)
		}
	}

	if cfg.Storage.ArchiveEnabled && cfg.Storage.ArchiveDir == "" {
		return fmt.Errorf("storage.archive_dir is required when the archive is enabled")
	}
	if cfg.Storage.MongoEnabled {
		if cfg.Storage.MongoURI == "" || cfg.Storage.MongoDatabase == "" || cfg.Storage.MongoCollection == "" {
			return fmt.Errorf("storage.mongo_uri, mongo_database, and mongo_collection are required when mongo is enabled")
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

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a marketplace origin.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
