package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nexusintel/nexus/internal/ai"
	"github.com/nexusintel/nexus/internal/cache"
	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/extract"
	"github.com/nexusintel/nexus/internal/observability"
	"github.com/nexusintel/nexus/internal/scraper"
	"github.com/nexusintel/nexus/internal/storage"
	"github.com/nexusintel/nexus/internal/types"
)

// Service is what the HTTP layer needs from the pipeline. Split out so
// handler tests can run against a fake.
type Service interface {
	// Products returns the record set for query and whether it came
	// from the cache.
	Products(ctx context.Context, query string) ([]types.ProductRecord, bool, error)

	// ClearCache deletes all cached files and returns the count.
	ClearCache() (int, error)

	// Stats returns the current counter snapshot.
	Stats() map[string]int64
}

// Pipeline wires the full search flow: cache lookup, scrape, extract,
// enrich, archive, cache store. One scrape runs at a time; concurrent
// requests for uncached queries queue on the mutex rather than racing
// the browser.
type Pipeline struct {
	cfg      *config.Config
	searcher scraper.Searcher
	extract  *extract.Extractor
	cache    *cache.FileCache
	enricher *ai.Enricher
	store    storage.ProductStore
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu sync.Mutex
}

// PipelineOption configures optional pipeline collaborators.
type PipelineOption func(*Pipeline)

// WithEnricher enables AI enrichment of scraped results.
func WithEnricher(e *ai.Enricher) PipelineOption {
	return func(p *Pipeline) { p.enricher = e }
}

// WithStore enables archival of scraped results.
func WithStore(s storage.ProductStore) PipelineOption {
	return func(p *Pipeline) { p.store = s }
}

// NewPipeline assembles the pipeline.
func NewPipeline(
	cfg *config.Config,
	searcher scraper.Searcher,
	extractor *extract.Extractor,
	fileCache *cache.FileCache,
	metrics *observability.Metrics,
	logger *slog.Logger,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		searcher: searcher,
		extract:  extractor,
		cache:    fileCache,
		metrics:  metrics,
		logger:   logger.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Products serves records for query, from cache when a fresh entry
// exists, otherwise by running the scrape pipeline. An empty record
// set is a valid outcome; the caller reports count 0.
func (p *Pipeline) Products(ctx context.Context, query string) ([]types.ProductRecord, bool, error) {
	p.metrics.SearchesTotal.Add(1)

	records, err := p.cache.Lookup(query)
	if err == nil {
		p.metrics.CacheHits.Add(1)
		return records, true, nil
	}
	if !errors.Is(err, types.ErrCacheMiss) && !errors.Is(err, types.ErrCacheExpired) {
		p.metrics.SearchesFailed.Add(1)
		return nil, false, err
	}
	p.metrics.CacheMisses.Add(1)

	records, err = p.run(ctx, query)
	if err != nil {
		p.metrics.SearchesFailed.Add(1)
		return nil, false, err
	}
	return records, false, nil
}

// run executes one scrape-extract-enrich pass for query.
func (p *Pipeline) run(ctx context.Context, query string) ([]types.ProductRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A queued request may find the cache filled by the scrape that
	// just finished ahead of it.
	if records, err := p.cache.Lookup(query); err == nil {
		p.metrics.CacheHits.Add(1)
		return records, nil
	}

	// Fresh run serves fresh data only.
	if _, err := p.cache.ClearAll(); err != nil {
		p.logger.Warn("cache clear failed", "error", err)
	}

	p.logger.Info("pipeline run starting", "query", query)

	result, err := p.searcher.Search(ctx, query)
	if err != nil {
		p.metrics.PagesFailed.Add(1)
		if errors.Is(err, types.ErrNoListings) {
			// No pages yielded listings: a valid empty outcome.
			return p.finish(ctx, query, nil)
		}
		return nil, err
	}
	p.metrics.PagesFetched.Add(int64(result.Pages))
	p.metrics.CardsSeen.Add(int64(result.Cards))

	extracted, err := p.extract.ExtractHTML(result.HTML, query)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordsKept.Add(int64(extracted.Kept))
	p.metrics.RecordsSkipped.Add(int64(extracted.Skipped))

	return p.finish(ctx, query, extracted.Records)
}

// finish runs the post-extraction stages: enrichment, archival, and
// cache store.
func (p *Pipeline) finish(ctx context.Context, query string, records []types.ProductRecord) ([]types.ProductRecord, error) {
	if p.enricher != nil && len(records) > 0 {
		records = p.enricher.Enrich(ctx, records)
		for _, rec := range records {
			if rec.Insight == nil {
				continue
			}
			if rec.Insight.Category == "Unknown" {
				p.metrics.EnrichmentsFailed.Add(1)
			} else {
				p.metrics.Enrichments.Add(1)
			}
		}
	}

	if p.store != nil && len(records) > 0 {
		if err := p.store.Archive(query, records); err != nil {
			p.logger.Warn("archive failed", "error", err)
		}
	}

	if _, err := p.cache.Store(query, records); err != nil {
		return nil, err
	}

	p.logger.Info("pipeline run complete", "query", query, "records", len(records))
	return records, nil
}

// ClearCache deletes every cached file.
func (p *Pipeline) ClearCache() (int, error) {
	return p.cache.ClearAll()
}

// Stats returns the counter snapshot.
func (p *Pipeline) Stats() map[string]int64 {
	return p.metrics.Snapshot()
}
