package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexusintel/nexus/internal/ai"
	"github.com/nexusintel/nexus/internal/api"
	"github.com/nexusintel/nexus/internal/cache"
	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/dashboard"
	"github.com/nexusintel/nexus/internal/extract"
	"github.com/nexusintel/nexus/internal/observability"
	"github.com/nexusintel/nexus/internal/scraper"
	"github.com/nexusintel/nexus/internal/storage"
)

var (
	cfgFile string
	verbose bool
	apiPort int
	useHTTP bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nexus",
		Short: "Nexus marketplace product intelligence",
		Long: `Nexus scrapes marketplace search results into clean, query-relevant
product records and serves them over a JSON API.

Features:
  • Headless-browser scraping with lazy-load scrolling and paging
  • Multi-strategy field extraction with relevance filtering
  • TTL-based result cache with CSV persistence
  • Optional AI enrichment (category, audience, value proposition)
  • Web dashboard and Prometheus metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the product-intelligence API server",
		RunE:  runServe,
	}

	cmd.Flags().IntVarP(&apiPort, "port", "p", 0, "API port (overrides config)")
	cmd.Flags().BoolVar(&useHTTP, "http-fetch", false, "fetch with plain HTTP instead of a browser")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort > 0 {
		cfg.API.Port = apiPort
	}
	if useHTTP {
		cfg.Scraper.FallbackToHTTP = true
	}

	fileCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	searcher, err := newSearcher(cfg, logger)
	if err != nil {
		return err
	}
	defer searcher.Close()

	extractor := extract.New(cfg.Extract, cfg.Scraper.BaseURL, cfg.Scraper.Platform, logger)
	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	var opts []api.PipelineOption
	if cfg.AI.Enabled {
		client := ai.NewClient(cfg.AI, logger)
		opts = append(opts, api.WithEnricher(ai.NewEnricher(client, cfg.AI, logger)))
	}
	var backends []storage.ProductStore
	if cfg.Storage.ArchiveEnabled {
		csvStore, err := storage.NewCSVStore(cfg.Storage.ArchiveDir, logger)
		if err != nil {
			return fmt.Errorf("create archive store: %w", err)
		}
		backends = append(backends, csvStore)
	}
	if cfg.Storage.MongoEnabled {
		mongoStore, err := storage.NewMongoStore(
			cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
		if err != nil {
			return fmt.Errorf("create mongo store: %w", err)
		}
		backends = append(backends, mongoStore)
	}
	switch len(backends) {
	case 0:
	case 1:
		defer backends[0].Close()
		opts = append(opts, api.WithStore(backends[0]))
	default:
		multi := storage.NewMultiStore(backends, logger)
		defer multi.Close()
		opts = append(opts, api.WithStore(multi))
	}

	pipeline := api.NewPipeline(cfg, searcher, extractor, fileCache, metrics, logger, opts...)
	server := api.NewServer(cfg.API, pipeline, logger)
	server.Mount("GET /dashboard", dashboard.New(logger))

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("nexus serving",
		"port", cfg.API.Port,
		"platform", cfg.Scraper.Platform,
		"max_pages", cfg.Scraper.MaxPages,
		"cache_ttl", cfg.Cache.TTL,
		"ai_enabled", cfg.AI.Enabled,
	)
	return server.Start()
}

// newSearcher picks the browser fetcher, falling back to plain HTTP
// when configured or when the browser cannot launch.
func newSearcher(cfg *config.Config, logger *slog.Logger) (scraper.Searcher, error) {
	if cfg.Scraper.FallbackToHTTP {
		return scraper.NewHTTPClient(cfg.Scraper, logger), nil
	}
	browser, err := scraper.NewBrowser(cfg.Scraper, logger)
	if err != nil {
		logger.Warn("browser launch failed, using HTTP fetcher", "error", err)
		return scraper.NewHTTPClient(cfg.Scraper, logger), nil
	}
	return browser, nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Nexus %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Scraper:\n")
			fmt.Printf("  Base URL:        %s\n", cfg.Scraper.BaseURL)
			fmt.Printf("  Platform:        %s\n", cfg.Scraper.Platform)
			fmt.Printf("  Max Pages:       %d\n", cfg.Scraper.MaxPages)
			fmt.Printf("  Headless:        %v\n", cfg.Scraper.Headless)
			fmt.Printf("  Nav Timeout:     %s\n", cfg.Scraper.NavTimeout)
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Card Selector:   %s\n", cfg.Extract.CardSelector)
			fmt.Printf("  Min Title Len:   %d\n", cfg.Extract.MinTitleLen)
			fmt.Printf("  Keyword Offset:  %d\n", cfg.Extract.MaxKeywordOffset)
			fmt.Printf("  Stop Words:      %d configured\n", len(cfg.Extract.StopWords))
			fmt.Printf("  Workers:         %d\n", cfg.Extract.Workers)
			fmt.Printf("\nCache:\n")
			fmt.Printf("  Raw Dir:         %s\n", cfg.Cache.RawDir)
			fmt.Printf("  Processed Dir:   %s\n", cfg.Cache.ProcessedDir)
			fmt.Printf("  TTL:             %s\n", cfg.Cache.TTL)
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Port:            %d\n", cfg.API.Port)
			fmt.Printf("  Default Limit:   %d\n", cfg.API.DefaultLimit)
			fmt.Printf("  Pipeline Timeout: %s\n", cfg.API.PipelineTimeout)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Archive:         %v (%s)\n", cfg.Storage.ArchiveEnabled, cfg.Storage.ArchiveDir)
			fmt.Printf("  Mongo:           %v\n", cfg.Storage.MongoEnabled)
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Enabled:         %v\n", cfg.AI.Enabled)
			fmt.Printf("  Model:           %s\n", cfg.AI.Model)
			fmt.Printf("  Top N:           %d\n", cfg.AI.TopN)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:         %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:            %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// loadConfig loads and validates configuration, returning it with a
// logger configured per the logging section.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg.Logging), nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.Logging) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
