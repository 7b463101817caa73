package extract

import (
	"math"
	"strings"
	"time"

	"github.com/nexusintel/nexus/internal/types"
)

// Validator turns raw extracted fields into a ProductRecord, or
// rejects them. It never returns an error: malformed input simply
// fails to produce a record and the orchestrator counts it as skipped.
type Validator struct {
	baseURL  string
	platform string
	now      func() time.Time
}

// NewValidator creates a validator that tags records with the given
// platform and absolutizes URLs against baseURL.
func NewValidator(baseURL, platform string) *Validator {
	return &Validator{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		platform: platform,
		now:      time.Now,
	}
}

// Validate constructs a ProductRecord from raw fields. ok is false
// when the fields cannot form a valid record: an empty title, or a
// zero price (price is the primary signal that the fragment is a real
// purchasable listing rather than an ad or placeholder).
func (v *Validator) Validate(f Fields) (types.ProductRecord, bool) {
	title := normalizeTitle(f.Title)
	if title == "" || f.Price <= 0 {
		return types.ProductRecord{}, false
	}

	url := f.URL
	if url != "" && !strings.HasPrefix(url, "http") {
		url = v.baseURL + url
	}

	rating := math.Round(clamp(f.Rating, 0, 5)*10) / 10

	return types.ProductRecord{
		Title:     title,
		Price:     math.Round(f.Price*100) / 100,
		Rating:    rating,
		URL:       url,
		Platform:  v.platform,
		ScrapedAt: v.now().Format(time.RFC3339),
	}, true
}

// normalizeTitle collapses internal whitespace and strips wrapping
// quotes left over from attribute-sourced titles.
func normalizeTitle(title string) string {
	t := strings.Join(strings.Fields(title), " ")
	return strings.Trim(t, `"'`)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
