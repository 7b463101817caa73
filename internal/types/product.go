package types

import (
	"math"
	"strings"
	"time"
)

// ProductRecord is a single validated marketplace listing.
// Records are immutable once constructed; construct them via
// extract.Validator so the field invariants hold.
type ProductRecord struct {
	// Title is the full product title, whitespace-normalized.
	Title string `json:"title" csv:"title"`

	// Price is the listing price with currency stripped, rounded
	// to 2 decimal places. Always > 0 for a validated record.
	Price float64 `json:"price" csv:"price"`

	// Rating is the star rating in [0,5], rounded to 1 decimal
	// place. 0 means no rating was found.
	Rating float64 `json:"rating" csv:"rating"`

	// URL is the absolute detail-page URL, or "" if none was found.
	URL string `json:"url" csv:"url"`

	// Platform tags the source marketplace.
	Platform string `json:"platform" csv:"platform"`

	// ScrapedAt is the ISO-8601 extraction timestamp.
	ScrapedAt string `json:"scraped_at" csv:"scraped_at"`

	// Insight holds optional AI enrichment. Nil until the record
	// passes through the enricher.
	Insight *Insight `json:"insight,omitempty" csv:"-"`
}

// ValueScore is rating / price * 10000, a rough value-for-money
// signal, higher is better. Returns 0 for unpriced records.
func (p *ProductRecord) ValueScore() float64 {
	if p.Price <= 0 {
		return 0
	}
	return math.Round(p.Rating/p.Price*10000*100) / 100
}

// Insight is the AI enrichment attached to a product record.
type Insight struct {
	Category        string   `json:"category"`
	TargetAudience  []string `json:"target_audience"`
	ImpliedFeatures []string `json:"implied_features"`
	ValueProp       string   `json:"value_proposition"`
}

// ExtractionResult is the output of one extraction run over a page.
type ExtractionResult struct {
	// Records are the deduplicated, validated, query-relevant
	// products in document order.
	Records []ProductRecord

	// Kept is the number of records in Records.
	Kept int

	// Skipped counts fragments rejected by validation or the
	// relevance filter.
	Skipped int
}

// Empty reports whether the run produced no products. An empty
// result is a normal outcome, not an error.
func (r *ExtractionResult) Empty() bool {
	return len(r.Records) == 0
}

// QueryKey normalizes a search query into a cache key:
// lowercase, trimmed, spaces replaced with underscores.
func QueryKey(query string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(query)), " ", "_")
}

// Timestamp formats t the way result and raw-page filenames expect.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
