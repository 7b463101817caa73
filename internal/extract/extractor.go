package extract

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

// Extractor drives the page → record-set transformation: it finds the
// listing fragments, runs field extraction and validation per
// fragment, applies the relevance filter when a query is supplied,
// deduplicates by title, and reports kept/skipped counts.
//
// The extractor is pure and holds no per-call state, so one instance
// is safe for concurrent use on independent documents.
type Extractor struct {
	cfg       config.Extract
	fields    *FieldExtractor
	relevance *Relevance
	validator *Validator
	logger    *slog.Logger
}

// New creates an Extractor. The filter heuristics (stop words,
// accessory signals, title-length floor, keyword-position cutoff)
// come from cfg so they can be tuned per marketplace.
func New(cfg config.Extract, baseURL, platform string, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:       cfg,
		fields:    NewFieldExtractor(baseURL, cfg.MinTitleLen),
		relevance: NewRelevance(cfg.StopWords, cfg.AccessorySignals, cfg.MaxKeywordOffset),
		validator: NewValidator(baseURL, platform),
		logger:    logger.With("component", "extractor"),
	}
}

// ExtractHTML parses raw HTML and extracts products from it.
func (e *Extractor) ExtractHTML(html, query string) (types.ExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.ExtractionResult{}, &types.ExtractError{Query: query, Err: err}
	}
	return e.Extract(doc, query), nil
}

// Extract pulls all product records from a parsed search-result page.
// An empty result is a normal outcome, not an error: callers check
// result.Empty() and report "no products" to their own consumers.
func (e *Extractor) Extract(doc *goquery.Document, query string) types.ExtractionResult {
	cards := doc.Find(e.cfg.CardSelector)
	e.logger.Debug("listing fragments located", "count", cards.Length(), "query", query)

	var filterWords []string
	if query != "" {
		filterWords = e.relevance.FilterWords(query)
	}

	// Per-fragment extraction is independent, so it can fan out
	// across workers. Results are collected by index and reduced in
	// document order afterward, keeping deduplication deterministic.
	candidates := make([]*types.ProductRecord, cards.Length())
	sels := make([]*goquery.Selection, 0, cards.Length())
	cards.Each(func(_ int, sel *goquery.Selection) {
		sels = append(sels, sel)
	})

	if e.cfg.Workers > 1 && len(sels) > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, e.cfg.Workers)
		for i, sel := range sels {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, sel *goquery.Selection) {
				defer wg.Done()
				defer func() { <-sem }()
				candidates[i] = e.processFragment(sel, filterWords)
			}(i, sel)
		}
		wg.Wait()
	} else {
		for i, sel := range sels {
			candidates[i] = e.processFragment(sel, filterWords)
		}
	}

	// Single-threaded reduction: dedup by exact title, first
	// occurrence in document order wins.
	seen := make(map[string]struct{}, len(candidates))
	result := types.ExtractionResult{}
	for _, rec := range candidates {
		if rec == nil {
			result.Skipped++
			continue
		}
		if _, dup := seen[rec.Title]; dup {
			result.Skipped++
			continue
		}
		seen[rec.Title] = struct{}{}
		result.Records = append(result.Records, *rec)
	}
	result.Kept = len(result.Records)

	e.logger.Info("extraction complete",
		"query", query,
		"fragments", len(sels),
		"kept", result.Kept,
		"skipped", result.Skipped,
	)
	return result
}

// processFragment extracts and validates one listing fragment.
// Returns nil when the fragment does not yield a keepable record.
// A structural deviation inside one fragment must never abort the
// batch, so any panic is contained here.
func (e *Extractor) processFragment(sel *goquery.Selection, filterWords []string) (rec *types.ProductRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("fragment skipped after panic", "panic", r)
			rec = nil
		}
	}()

	fields := e.fields.Extract(sel)
	record, ok := e.validator.Validate(fields)
	if !ok {
		return nil
	}
	if len(filterWords) > 0 && !e.relevance.IsRelevant(record.Title, filterWords) {
		return nil
	}
	return &record
}
