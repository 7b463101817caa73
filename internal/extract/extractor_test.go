package extract

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/nexusintel/nexus/internal/config"
)

func newTestExtractor(workers int) *Extractor {
	cfg := config.DefaultConfig().Extract
	cfg.Workers = workers
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, testBaseURL, "Amazon", logger)
}

func card(title, price, rating string) string {
	var b strings.Builder
	b.WriteString(`<div data-component-type="s-search-result">`)
	b.WriteString(`<h2><a href="/dp/B0TEST"><span class="a-text-normal">` + title + `</span></a></h2>`)
	if price != "" {
		b.WriteString(`<span class="a-price"><span class="a-price-whole">` + price + `</span></span>`)
	}
	if rating != "" {
		b.WriteString(`<span aria-label="` + rating + `">` + rating + `</span>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func page(cards ...string) string {
	return `<html><body><div class="s-main-slot">` + strings.Join(cards, "\n") + `</div></body></html>`
}

func TestExtractEndToEnd(t *testing.T) {
	e := newTestExtractor(1)

	html := page(card("Sony WH-1000XM5 Wireless Headphones", "29,990", "4.5 out of 5 stars"))
	result, err := e.ExtractHTML(html, "sony headphones")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}

	if result.Kept != 1 || result.Skipped != 0 {
		t.Fatalf("kept=%d skipped=%d, want 1/0", result.Kept, result.Skipped)
	}
	rec := result.Records[0]
	if rec.Title != "Sony WH-1000XM5 Wireless Headphones" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Price != 29990 {
		t.Errorf("price = %v, want 29990", rec.Price)
	}
	if rec.Rating != 4.5 {
		t.Errorf("rating = %v, want 4.5", rec.Rating)
	}
	if rec.URL != testBaseURL+"/dp/B0TEST" {
		t.Errorf("url = %q", rec.URL)
	}
	if rec.Platform != "Amazon" {
		t.Errorf("platform = %q", rec.Platform)
	}
}

func TestExtractSkipsIrrelevantAndInvalid(t *testing.T) {
	e := newTestExtractor(1)

	html := page(
		card("Sony WH-1000XM5 Wireless Headphones", "29,990", "4.5 out of 5 stars"),
		card("USB C Cable Compatible with Sony Headphones MFi", "499", "4.1 out of 5 stars"),
		card("Sony WH-CH520 Wireless Headphones", "", ""),
	)
	result, err := e.ExtractHTML(html, "sony headphones")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}

	if result.Kept != 1 {
		t.Errorf("kept = %d, want 1", result.Kept)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (one irrelevant, one priceless)", result.Skipped)
	}
}

func TestExtractDeduplicatesByTitle(t *testing.T) {
	e := newTestExtractor(1)

	first := `<div data-component-type="s-search-result">
		<h2><a href="/dp/FIRST"><span class="a-text-normal">Sony WH-1000XM5 Wireless Headphones</span></a></h2>
		<span class="a-price"><span class="a-price-whole">29,990</span></span></div>`
	second := `<div data-component-type="s-search-result">
		<h2><a href="/dp/SECOND"><span class="a-text-normal">Sony WH-1000XM5 Wireless Headphones</span></a></h2>
		<span class="a-price"><span class="a-price-whole">27,490</span></span></div>`

	result, err := e.ExtractHTML(page(first, second), "")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}

	if result.Kept != 1 || result.Skipped != 1 {
		t.Fatalf("kept=%d skipped=%d, want 1/1", result.Kept, result.Skipped)
	}
	// First occurrence in document order wins.
	if result.Records[0].URL != testBaseURL+"/dp/FIRST" {
		t.Errorf("kept record url = %q, want the first occurrence", result.Records[0].URL)
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := newTestExtractor(1)

	html := page(
		card("Sony WH-1000XM5 Wireless Headphones", "29,990", "4.5 out of 5 stars"),
		card("Sony WH-CH520 Wireless On-Ear Headphones", "3,989", "4.2 out of 5 stars"),
	)

	a, err := e.ExtractHTML(html, "sony headphones")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := e.ExtractHTML(html, "sony headphones")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	// ScrapedAt can differ between runs; compare everything else.
	for i := range a.Records {
		a.Records[i].ScrapedAt = ""
		b.Records[i].ScrapedAt = ""
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("runs differ:\n%+v\n%+v", a, b)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	e := newTestExtractor(1)

	result, err := e.ExtractHTML(`<html><body><p>No results for your search.</p></body></html>`, "sony headphones")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected empty result, got %+v", result)
	}
	if result.Kept != 0 || result.Skipped != 0 {
		t.Errorf("kept=%d skipped=%d, want 0/0", result.Kept, result.Skipped)
	}
}

func TestExtractParallelMatchesSequential(t *testing.T) {
	seq := newTestExtractor(1)
	par := newTestExtractor(8)

	cards := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		title := fmt.Sprintf("Sony Wireless Headphones Model %02d", i)
		if i%5 == 0 {
			title = "Case for Sony Headphones Hard Shell"
		}
		cards = append(cards, card(title, fmt.Sprintf("%d,990", i+1), "4.0 out of 5 stars"))
	}
	html := page(cards...)

	a, err := seq.ExtractHTML(html, "sony headphones")
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	b, err := par.ExtractHTML(html, "sony headphones")
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	for i := range a.Records {
		a.Records[i].ScrapedAt = ""
	}
	for i := range b.Records {
		b.Records[i].ScrapedAt = ""
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("parallel extraction diverged from sequential:\nseq: %+v\npar: %+v", a, b)
	}
}

func TestExtractNoQuerySkipsRelevanceFilter(t *testing.T) {
	e := newTestExtractor(1)

	html := page(card("USB C Cable Compatible with iPhone Apple MFi Certified", "499", "4.1 out of 5 stars"))
	result, err := e.ExtractHTML(html, "")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if result.Kept != 1 {
		t.Errorf("kept = %d, want 1 (no query, no filtering)", result.Kept)
	}
}

func BenchmarkExtract(b *testing.B) {
	e := newTestExtractor(1)

	cards := make([]string, 0, 48)
	for i := 0; i < 48; i++ {
		cards = append(cards, card(fmt.Sprintf("Sony Wireless Headphones Model %02d", i), "9,990", "4.3 out of 5 stars"))
	}
	html := page(cards...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.ExtractHTML(html, "sony headphones"); err != nil {
			b.Fatal(err)
		}
	}
}
