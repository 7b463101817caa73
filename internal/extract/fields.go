package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Fields holds the raw values pulled from one listing fragment before
// validation. Zero values mean "not found".
type Fields struct {
	Title  string
	Price  float64
	Rating float64
	URL    string
}

// FieldExtractor pulls product fields out of a single listing fragment.
// Every marketplace renders the same card half a dozen ways, so each
// field runs an ordered list of fallback strategies and the first hit
// wins. Extraction never fails hard: a missing field yields its zero
// value and the validator decides whether that kills the record.
type FieldExtractor struct {
	baseURL     string
	minTitleLen int
}

// Title selectors in fallback order. The first group targets the text
// span inside the heading link; the later entries cover size-class
// variants some result layouts use instead.
var titleSelectors = []string{
	"h2 span.a-text-normal",
	"h2 a span",
	"span.a-size-medium",
	"span.a-size-base-plus",
	"h2 span",
}

var decimalRe = regexp.MustCompile(`(\d+\.?\d*)`)
var nonPriceRe = regexp.MustCompile(`[^\d.]`)

// NewFieldExtractor creates a field extractor. baseURL is the
// marketplace origin used to absolutize relative detail-page links,
// minTitleLen the floor below which a candidate title is treated as a
// badge or sponsored tag rather than a real title.
func NewFieldExtractor(baseURL string, minTitleLen int) *FieldExtractor {
	return &FieldExtractor{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		minTitleLen: minTitleLen,
	}
}

// Extract runs all field strategies over one listing fragment.
func (fe *FieldExtractor) Extract(card *goquery.Selection) Fields {
	return Fields{
		Title:  fe.Title(card),
		Price:  fe.Price(card),
		Rating: fe.Rating(card),
		URL:    fe.URL(card),
	}
}

// Title returns the first title candidate longer than the configured
// floor, or "" if none qualifies.
func (fe *FieldExtractor) Title(card *goquery.Selection) string {
	for _, sel := range titleSelectors {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); fe.longEnough(t) {
			return t
		}
	}

	// The heading link's accessible label carries the full title when
	// the visible span is truncated.
	link := card.Find("h2 a").First()
	if link.Length() > 0 {
		if label, ok := link.Attr("aria-label"); ok {
			if t := strings.TrimSpace(label); fe.longEnough(t) {
				return t
			}
		}
		if t := strings.TrimSpace(link.Text()); fe.longEnough(t) {
			return t
		}
	}

	// Last resort: the thumbnail alt text is usually the product name.
	if alt, ok := card.Find("img.s-image").First().Attr("alt"); ok {
		if t := strings.TrimSpace(alt); fe.longEnough(t) {
			return t
		}
	}

	return ""
}

// Price returns the listing price, or 0 when no price could be parsed.
// Callers must treat 0 as "no price found", never as a free item.
func (fe *FieldExtractor) Price(card *goquery.Selection) float64 {
	if whole := card.Find(".a-price-whole").First(); whole.Length() > 0 {
		if p := CleanPrice(whole.Text()); p > 0 {
			return p
		}
	}
	// Offscreen accessibility price holds the full formatted string,
	// e.g. "₹3,990.00".
	for _, sel := range []string{"span.a-price span.a-offscreen", ".a-offscreen"} {
		if off := card.Find(sel).First(); off.Length() > 0 {
			if p := CleanPrice(off.Text()); p > 0 {
				return p
			}
		}
	}
	return 0
}

// Rating returns the star rating, or 0 when no rating indicator is
// present or no number can be parsed from it.
func (fe *FieldExtractor) Rating(card *goquery.Selection) float64 {
	tag := card.Find(`span[aria-label*="star"]`).First()
	if tag.Length() == 0 {
		tag = card.Find(`i[class*="a-star"]`).First()
	}
	if tag.Length() == 0 {
		tag = card.Find("span.a-icon-alt").First()
	}
	if tag.Length() == 0 {
		return 0
	}

	text := tag.Text()
	if strings.TrimSpace(text) == "" {
		text, _ = tag.Attr("aria-label")
	}
	if m := decimalRe.FindString(text); m != "" {
		if r, err := strconv.ParseFloat(m, 64); err == nil {
			return r
		}
	}
	return 0
}

// URL returns the absolute detail-page URL, or "" if the fragment has
// no heading link.
func (fe *FieldExtractor) URL(card *goquery.Selection) string {
	href, ok := card.Find("h2 a").First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return fe.baseURL + href
}

// CleanPrice strips every non-digit, non-period character and parses
// the remainder as a decimal. "₹29,990" → 29990, "" → 0.
func CleanPrice(text string) float64 {
	clean := nonPriceRe.ReplaceAllString(text, "")
	if clean == "" {
		return 0
	}
	p, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return p
}

func (fe *FieldExtractor) longEnough(t string) bool {
	return utf8.RuneCountInString(t) > fe.minTitleLen
}
