package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexusintel/nexus/internal/ai"
	"github.com/nexusintel/nexus/internal/cache"
	"github.com/nexusintel/nexus/internal/extract"
	"github.com/nexusintel/nexus/internal/types"
)

var (
	scrapePages  int
	parseQuery   string
	parseOutput  string
	enrichOutput string
)

// scrapeCmd creates the "scrape" subcommand: a one-shot run of the full
// pipeline for a single search term, without the API server.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <search term>",
		Short: "Scrape a search term once and cache the results",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScrape,
	}

	cmd.Flags().IntVar(&scrapePages, "pages", 0, "max result pages (overrides config)")
	cmd.Flags().BoolVar(&useHTTP, "http-fetch", false, "fetch with plain HTTP instead of a browser")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if scrapePages > 0 {
		cfg.Scraper.MaxPages = scrapePages
	}
	if useHTTP {
		cfg.Scraper.FallbackToHTTP = true
	}

	term := joinArgs(args)
	fileCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	searcher, err := newSearcher(cfg, logger)
	if err != nil {
		return err
	}
	defer searcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := searcher.Search(ctx, term)
	if err != nil {
		return fmt.Errorf("search %q: %w", term, err)
	}

	extractor := extract.New(cfg.Extract, cfg.Scraper.BaseURL, cfg.Scraper.Platform, logger)
	extracted, err := extractor.ExtractHTML(result.HTML, term)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	records := extracted.Records
	if cfg.AI.Enabled && len(records) > 0 {
		enricher := ai.NewEnricher(ai.NewClient(cfg.AI, logger), cfg.AI, logger)
		records = enricher.Enrich(ctx, records)
	}

	path, err := fileCache.Store(term, records)
	if err != nil {
		return fmt.Errorf("store results: %w", err)
	}

	fmt.Printf("\nScrape complete in %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("  Term:      %s\n", term)
	fmt.Printf("  Pages:     %d (%d listings seen)\n", result.Pages, result.Cards)
	fmt.Printf("  Kept:      %d\n", extracted.Kept)
	fmt.Printf("  Skipped:   %d\n", extracted.Skipped)
	fmt.Printf("  Raw HTML:  %s\n", result.FilePath)
	fmt.Printf("  Results:   %s\n", path)
	printTop(records, 5)
	return nil
}

// parseCmd creates the "parse" subcommand: run extraction over a saved
// HTML file without fetching anything.
func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <html file>",
		Short: "Extract product records from a saved HTML page",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}

	cmd.Flags().StringVarP(&parseQuery, "query", "q", "", "search term for relevance filtering")
	cmd.Flags().StringVarP(&parseOutput, "output", "o", "", "write records to this CSV file")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	extractor := extract.New(cfg.Extract, cfg.Scraper.BaseURL, cfg.Scraper.Platform, logger)
	result, err := extractor.ExtractHTML(string(raw), parseQuery)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	fmt.Printf("Extracted %d record(s), skipped %d\n", result.Kept, result.Skipped)
	if parseOutput != "" {
		if err := cache.WriteCSV(parseOutput, result.Records); err != nil {
			return fmt.Errorf("write %s: %w", parseOutput, err)
		}
		fmt.Printf("Wrote %s\n", parseOutput)
	}
	printTop(result.Records, 10)
	return nil
}

// enrichCmd creates the "enrich" subcommand: attach AI insights to the
// most recent cached result set for a query.
func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich <search term>",
		Short: "Enrich the latest cached results for a term with AI insights",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEnrich,
	}

	cmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "write enriched records to this CSV file")

	return cmd
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AI.Enabled {
		return fmt.Errorf("AI enrichment is disabled; set NEXUS_AI_ENABLED=true and provide an API key")
	}

	term := joinArgs(args)
	key := types.QueryKey(term)
	matches, err := filepath.Glob(filepath.Join(cfg.Cache.ProcessedDir, key+"_*.csv"))
	if err != nil || len(matches) == 0 {
		return fmt.Errorf("no cached results for %q; run `nexus scrape %s` first", term, term)
	}
	latest := matches[len(matches)-1]

	records, err := cache.ReadCSV(latest)
	if err != nil {
		return fmt.Errorf("read %s: %w", latest, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s holds no records", latest)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enricher := ai.NewEnricher(ai.NewClient(cfg.AI, logger), cfg.AI, logger)
	enriched := enricher.Enrich(ctx, records)

	out := enrichOutput
	if out == "" {
		out = filepath.Join(cfg.Cache.ProcessedDir, fmt.Sprintf("%s_%s.csv", key, types.Timestamp(time.Now())))
	}
	if err := cache.WriteCSV(out, enriched); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	analyzed := 0
	for _, rec := range enriched {
		if rec.Insight != nil {
			analyzed++
		}
	}
	fmt.Printf("Enriched %d of %d record(s) from %s\n", analyzed, len(enriched), latest)
	fmt.Printf("Wrote %s\n", out)
	return nil
}

func joinArgs(args []string) string {
	term := args[0]
	for _, a := range args[1:] {
		term += " " + a
	}
	return term
}

func printTop(records []types.ProductRecord, n int) {
	if len(records) == 0 {
		return
	}
	if n > len(records) {
		n = len(records)
	}
	fmt.Printf("\nTop %d result(s):\n", n)
	for _, rec := range records[:n] {
		fmt.Printf("  ₹%-10.2f ★%.1f  value %.2f  %s\n", rec.Price, rec.Rating, rec.ValueScore(), rec.Title)
	}
}
