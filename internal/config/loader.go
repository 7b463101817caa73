package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("nexus")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".nexus"))
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
	v.SetDefault("scraper.base_url", cfg.Scraper.BaseURL)
	v.SetDefault("scraper.platform", cfg.Scraper.Platform)
	v.SetDefault("scraper.max_pages", cfg.Scraper.MaxPages)
	v.SetDefault("scraper.headless", cfg.Scraper.Headless)
	v.SetDefault("scraper.nav_timeout", cfg.Scraper.NavTimeout)
	v.SetDefault("scraper.min_page_delay", cfg.Scraper.MinPageDelay)
	v.SetDefault("scraper.max_page_delay", cfg.Scraper.MaxPageDelay)
	v.SetDefault("scraper.scroll_passes", cfg.Scraper.ScrollPasses)
	v.SetDefault("scraper.raw_dir", cfg.Scraper.RawDir)
	v.SetDefault("scraper.fallback_http", cfg.Scraper.FallbackToHTTP)

	v.SetDefault("extract.card_selector", cfg.Extract.CardSelector)
	v.SetDefault("extract.min_title_len", cfg.Extract.MinTitleLen)
	v.SetDefault("extract.max_keyword_offset", cfg.Extract.MaxKeywordOffset)
	v.SetDefault("extract.stop_words", cfg.Extract.StopWords)
	v.SetDefault("extract.accessory_signals", cfg.Extract.AccessorySignals)
	v.SetDefault("extract.workers", cfg.Extract.Workers)

	v.SetDefault("cache.raw_dir", cfg.Cache.RawDir)
	v.SetDefault("cache.processed_dir", cfg.Cache.ProcessedDir)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.clear_on_boot", cfg.Cache.ClearOnBoot)

	v.SetDefault("storage.archive_enabled", cfg.Storage.ArchiveEnabled)
	v.SetDefault("storage.archive_dir", cfg.Storage.ArchiveDir)
	v.SetDefault("storage.mongo_enabled", cfg.Storage.MongoEnabled)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("api.port", cfg.API.Port)
	v.SetDefault("api.default_limit", cfg.API.DefaultLimit)
	v.SetDefault("api.max_limit", cfg.API.MaxLimit)
	v.SetDefault("api.pipeline_timeout", cfg.API.PipelineTimeout)

	v.SetDefault("ai.enabled", cfg.AI.Enabled)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)
	v.SetDefault("ai.top_n", cfg.AI.TopN)
	v.SetDefault("ai.rate_limit", cfg.AI.RateLimit)
	v.SetDefault("ai.timeout", cfg.AI.Timeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
