package scraper

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/nexusintel/nexus/internal/types"
)

// pageBreak separates individual result pages inside a combined raw
// HTML file. The extraction layer parses the combined document as one;
// the marker exists so a human inspecting a raw file can tell pages
// apart.
const pageBreak = "\n<!-- PAGE BREAK -->\n"

// listingXPath locates product cards when counting them in raw HTML,
// before the document ever reaches the extraction layer.
const listingXPath = `//div[@data-component-type="s-search-result"]`

// Result is the outcome of one search fetch: the combined HTML of all
// result pages, how many pages contributed, how many listing cards
// were seen, and where the raw file was written.
type Result struct {
	HTML     string
	Pages    int
	Cards    int
	FilePath string
}

// Searcher fetches all result pages for a search term. Implementations
// are the headless browser (primary) and the plain HTTP client
// (fallback for environments without a browser).
type Searcher interface {
	Search(ctx context.Context, term string) (*Result, error)
	Close() error
}

// SearchURL builds the search-results URL for a term and page number.
func SearchURL(baseURL, term string, page int) string {
	base := strings.TrimSuffix(baseURL, "/")
	q := strings.ReplaceAll(strings.TrimSpace(term), " ", "+")
	return base + "/s?k=" + q + "&page=" + strconv.Itoa(page)
}

// CountListings counts product cards in raw HTML. Zero means the page
// carried no results, which ends pagination.
func CountListings(raw string) int {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return 0
	}
	return len(htmlquery.Find(doc, listingXPath))
}

// JoinPages combines per-page HTML into the single raw document that
// gets cached and parsed.
func JoinPages(pages []string) string {
	return strings.Join(pages, pageBreak)
}

// RawFileName names a raw capture: amazon_{query_key}_{timestamp}.html.
func RawFileName(term string, t time.Time) string {
	return "amazon_" + types.QueryKey(term) + "_" + types.Timestamp(t) + ".html"
}

// SaveRaw writes combined HTML under dir and returns the file path.
func SaveRaw(dir, term, raw string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &types.StorageError{Backend: "file", Err: err}
	}
	path := filepath.Join(dir, RawFileName(term, time.Now()))
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return "", &types.StorageError{Backend: "file", Err: err}
	}
	return path, nil
}

// jitterBetween returns a random duration in [min, max].
func jitterBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
