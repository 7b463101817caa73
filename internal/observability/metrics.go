package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for the pipeline.
type Metrics struct {
	// Search metrics
	SearchesTotal  atomic.Int64
	SearchesFailed atomic.Int64
	CacheHits      atomic.Int64
	CacheMisses    atomic.Int64

	// Scrape metrics
	PagesFetched atomic.Int64
	PagesFailed  atomic.Int64
	CardsSeen    atomic.Int64

	// Extraction metrics
	RecordsKept    atomic.Int64
	RecordsSkipped atomic.Int64

	// Enrichment metrics
	Enrichments       atomic.Int64
	EnrichmentsFailed atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"nexus_searches_total", "Total search requests processed", m.SearchesTotal.Load()},
		{"nexus_searches_failed_total", "Total failed search requests", m.SearchesFailed.Load()},
		{"nexus_cache_hits_total", "Total cache hits", m.CacheHits.Load()},
		{"nexus_cache_misses_total", "Total cache misses", m.CacheMisses.Load()},
		{"nexus_pages_fetched_total", "Total result pages fetched", m.PagesFetched.Load()},
		{"nexus_pages_failed_total", "Total failed page fetches", m.PagesFailed.Load()},
		{"nexus_cards_seen_total", "Total listing cards seen", m.CardsSeen.Load()},
		{"nexus_records_kept_total", "Total records kept after filtering", m.RecordsKept.Load()},
		{"nexus_records_skipped_total", "Total fragments skipped", m.RecordsSkipped.Load()},
		{"nexus_enrichments_total", "Total AI enrichments performed", m.Enrichments.Load()},
		{"nexus_enrichments_failed_total", "Total failed AI enrichments", m.EnrichmentsFailed.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all counters as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"searches_total":     m.SearchesTotal.Load(),
		"searches_failed":    m.SearchesFailed.Load(),
		"cache_hits":         m.CacheHits.Load(),
		"cache_misses":       m.CacheMisses.Load(),
		"pages_fetched":      m.PagesFetched.Load(),
		"pages_failed":       m.PagesFailed.Load(),
		"cards_seen":         m.CardsSeen.Load(),
		"records_kept":       m.RecordsKept.Load(),
		"records_skipped":    m.RecordsSkipped.Load(),
		"enrichments":        m.Enrichments.Load(),
		"enrichments_failed": m.EnrichmentsFailed.Load(),
	}
}
