package ai

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

// Analyzer produces an insight for one product.
type Analyzer interface {
	Analyze(ctx context.Context, title string, price float64) (types.Insight, error)
}

// Enricher attaches AI insights to the top records of a result set.
// Only the first TopN records are enriched, and calls are paced by the
// configured rate limit to stay inside free-tier quotas.
type Enricher struct {
	analyzer Analyzer
	topN     int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewEnricher creates an enricher around an analyzer.
func NewEnricher(analyzer Analyzer, cfg config.AI, logger *slog.Logger) *Enricher {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateLimit), 1)
	}
	return &Enricher{
		analyzer: analyzer,
		topN:     cfg.TopN,
		limiter:  limiter,
		logger:   logger.With("component", "enricher"),
	}
}

// Enrich returns a copy of records with insights attached to the first
// TopN entries. A failed analysis attaches the fallback insight rather
// than leaving the record bare; records past TopN pass through
// untouched. Cancelling ctx stops further calls and returns what has
// been enriched so far.
func (e *Enricher) Enrich(ctx context.Context, records []types.ProductRecord) []types.ProductRecord {
	out := make([]types.ProductRecord, len(records))
	copy(out, records)

	n := e.topN
	if n > len(out) {
		n = len(out)
	}

	for i := 0; i < n; i++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				e.logger.Warn("enrichment cancelled", "enriched", i, "error", err)
				return out
			}
		}

		insight, err := e.analyzer.Analyze(ctx, out[i].Title, out[i].Price)
		if err != nil {
			e.logger.Warn("analysis fell back", "title", out[i].Title, "error", err)
		}
		in := insight
		out[i].Insight = &in
	}

	e.logger.Info("enrichment complete", "enriched", n, "total", len(out))
	return out
}
