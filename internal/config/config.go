package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for Nexus.
type Config struct {
	Scraper Scraper `mapstructure:"scraper" yaml:"scraper"`
	Extract Extract `mapstructure:"extract" yaml:"extract"`
	Cache   Cache   `mapstructure:"cache"   yaml:"cache"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	API     API     `mapstructure:"api"     yaml:"api"`
	AI      AI      `mapstructure:"ai"      yaml:"ai"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
}

// Scraper controls the search-page fetcher.
type Scraper struct {
	BaseURL        string        `mapstructure:"base_url"        yaml:"base_url"`
	Platform       string        `mapstructure:"platform"        yaml:"platform"`
	MaxPages       int           `mapstructure:"max_pages"       yaml:"max_pages"`
	Headless       bool          `mapstructure:"headless"        yaml:"headless"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"     yaml:"nav_timeout"`
	MinPageDelay   time.Duration `mapstructure:"min_page_delay"  yaml:"min_page_delay"`
	MaxPageDelay   time.Duration `mapstructure:"max_page_delay"  yaml:"max_page_delay"`
	ScrollPasses   int           `mapstructure:"scroll_passes"   yaml:"scroll_passes"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	RawDir         string        `mapstructure:"raw_dir"         yaml:"raw_dir"`
	FallbackToHTTP bool          `mapstructure:"fallback_http"   yaml:"fallback_http"`
}

// Extract controls the extraction core: listing discovery, field
// extraction, and the relevance filter. The filter heuristics are
// configuration, not literals, so they can be tuned per marketplace
// without code changes.
type Extract struct {
	CardSelector     string   `mapstructure:"card_selector"      yaml:"card_selector"`
	MinTitleLen      int      `mapstructure:"min_title_len"      yaml:"min_title_len"`
	MaxKeywordOffset int      `mapstructure:"max_keyword_offset" yaml:"max_keyword_offset"`
	StopWords        []string `mapstructure:"stop_words"         yaml:"stop_words"`
	AccessorySignals []string `mapstructure:"accessory_signals"  yaml:"accessory_signals"`
	Workers          int      `mapstructure:"workers"            yaml:"workers"`
}

// Cache controls the on-disk result cache.
type Cache struct {
	RawDir       string        `mapstructure:"raw_dir"       yaml:"raw_dir"`
	ProcessedDir string        `mapstructure:"processed_dir" yaml:"processed_dir"`
	TTL          time.Duration `mapstructure:"ttl"           yaml:"ttl"`
	ClearOnBoot  bool          `mapstructure:"clear_on_boot" yaml:"clear_on_boot"`
}

// Storage controls optional archive backends beyond the file cache.
type Storage struct {
	ArchiveEnabled  bool   `mapstructure:"archive_enabled"  yaml:"archive_enabled"`
	ArchiveDir      string `mapstructure:"archive_dir"      yaml:"archive_dir"`
	MongoEnabled    bool   `mapstructure:"mongo_enabled"    yaml:"mongo_enabled"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// API controls the HTTP server.
type API struct {
	Port            int           `mapstructure:"port"             yaml:"port"`
	DefaultLimit    int           `mapstructure:"default_limit"    yaml:"default_limit"`
	MaxLimit        int           `mapstructure:"max_limit"        yaml:"max_limit"`
	PipelineTimeout time.Duration `mapstructure:"pipeline_timeout" yaml:"pipeline_timeout"`
}

// AI controls the enrichment client.
type AI struct {
	Enabled     bool          `mapstructure:"enabled"      yaml:"enabled"`
	Endpoint    string        `mapstructure:"endpoint"     yaml:"endpoint"`
	Model       string        `mapstructure:"model"        yaml:"model"`
	APIKey      string        `mapstructure:"api_key"      yaml:"api_key"`
	Temperature float64       `mapstructure:"temperature"  yaml:"temperature"`
	TopN        int           `mapstructure:"top_n"        yaml:"top_n"`
	RateLimit   time.Duration `mapstructure:"rate_limit"   yaml:"rate_limit"`
	Timeout     time.Duration `mapstructure:"timeout"      yaml:"timeout"`
}

// Logging controls logging behavior.
type Logging struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Metrics controls the Prometheus metrics endpoint.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: Scraper{
			BaseURL:        "https://www.amazon.in",
			Platform:       "Amazon",
			MaxPages:       3,
			Headless:       true,
			NavTimeout:     60 * time.Second,
			MinPageDelay:   2 * time.Second,
			MaxPageDelay:   4 * time.Second,
			ScrollPasses:   5,
			RawDir:         "data/raw",
			FallbackToHTTP: false,
		},
		Extract: Extract{
			CardSelector:     `div[data-component-type="s-search-result"]`,
			MinTitleLen:      10,
			MaxKeywordOffset: 60,
			StopWords: []string{
				"for", "with", "and", "the", "a", "an", "in", "on", "of",
				"to", "is", "by", "or", "be", "at", "as", "it", "compatible",
			},
			AccessorySignals: []string{
				"compatible with", "compatible for", "for apple", "for iphone",
				"for samsung", "case for", "cover for", "cable for",
				"charger for", "charging cable", "charging cord",
				"mfi certified", "mfi-certified",
				"protector", "tempered glass", "screen guard",
			},
			Workers: 1,
		},
		Cache: Cache{
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
			TTL:          24 * time.Hour,
			ClearOnBoot:  true,
		},
		Storage: Storage{
			ArchiveEnabled:  false,
			ArchiveDir:      "data/archive",
			MongoEnabled:    false,
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "nexus",
			MongoCollection: "products",
		},
		API: API{
			Port:            8000,
			DefaultLimit:    20,
			MaxLimit:        100,
			PipelineTimeout: 3 * time.Minute,
		},
		AI: AI{
			Enabled:     false,
			Endpoint:    "https://generativelanguage.googleapis.com/v1beta/models",
			Model:       "gemini-flash-latest",
			Temperature: 0.2,
			TopN:        5,
			RateLimit:   10 * time.Second,
			Timeout:     30 * time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Metrics: Metrics{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
