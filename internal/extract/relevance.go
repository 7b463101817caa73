package extract

import (
	"strings"
)

// Relevance decides whether a listing title is actually ABOUT the
// query, rather than an accessory that mentions the query term in a
// compatibility note. It is a heuristic, deliberately biased toward
// false negatives: consumers prefer fewer, relevant results over a
// noisy superset.
type Relevance struct {
	stopWords        map[string]struct{}
	accessorySignals []string
	maxKeywordOffset int
}

// NewRelevance builds a filter from the configured stop words,
// accessory-signal phrases, and keyword-position cutoff.
func NewRelevance(stopWords, accessorySignals []string, maxKeywordOffset int) *Relevance {
	stops := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	signals := make([]string, len(accessorySignals))
	for i, s := range accessorySignals {
		signals[i] = strings.ToLower(s)
	}
	return &Relevance{
		stopWords:        stops,
		accessorySignals: signals,
		maxKeywordOffset: maxKeywordOffset,
	}
}

// FilterWords derives the meaningful filter words from a raw query.
//
//	"sony headphones"  → ["sony", "headphone"]
//	"apple iPhones"    → ["apple", "iphone"]
//
// Tokens are lowercased, stop words and tokens of length <= 2 are
// dropped, and tokens longer than 4 characters lose one trailing "s".
// The singularization is knowingly naive ("boxes" → "boxe"); the
// coverage rule matches substrings, so the imperfect singular still
// matches the plural form in titles.
func (r *Relevance) FilterWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.TrimSpace(w)
		if _, stop := r.stopWords[w]; stop || len(w) <= 2 {
			continue
		}
		if len(w) > 4 {
			w = strings.TrimSuffix(w, "s")
		}
		words = append(words, w)
	}
	return words
}

// IsRelevant reports whether title is about the queried item.
//
// Three rules, all must pass:
//  1. every filter word occurs somewhere in the lowercased title;
//  2. no accessory-signal phrase ("compatible with", "case for",
//     "charging cable") appears before the first filter word. A title
//     that leads with accessory language is selling an add-on for the
//     queried item, not the item itself;
//  3. the first filter word appears within the first maxKeywordOffset
//     characters. A real match states its subject up front; a match
//     buried deep in the title means the term is incidental.
func (r *Relevance) IsRelevant(title string, filterWords []string) bool {
	if len(filterWords) == 0 {
		return true
	}
	t := strings.ToLower(title)

	for _, w := range filterWords {
		if !strings.Contains(t, w) {
			return false
		}
	}

	firstPos := strings.Index(t, filterWords[0])

	for _, signal := range r.accessorySignals {
		if strings.HasPrefix(t, signal) {
			return false
		}
		if pos := strings.Index(t, signal); pos >= 0 && pos < firstPos {
			return false
		}
	}

	if firstPos > r.maxKeywordOffset {
		return false
	}

	return true
}
