package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoProducts    = errors.New("no products extracted")
	ErrNoListings    = errors.New("no listing fragments found")
	ErrCacheMiss     = errors.New("no cached result for query")
	ErrCacheExpired  = errors.New("cached result is past its TTL")
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrQueryTooShort = errors.New("query must be at least 2 characters")
	ErrTimeout       = errors.New("pipeline timed out")
)

// FetchError wraps errors that occur while fetching search pages.
type FetchError struct {
	URL       string
	Page      int
	Err       error
	Retryable bool
}

func (e *FetchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("fetch error for %s (page %d): %v", e.URL, e.Page, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ExtractError wraps errors that occur while parsing a page.
type ExtractError struct {
	Query    string
	Selector string
	Err      error
}

func (e *ExtractError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("extract error for query %q (selector=%q): %v", e.Query, e.Selector, e.Err)
	}
	return fmt.Sprintf("extract error for query %q: %v", e.Query, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StorageError wraps errors from a product store backend.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// EnrichError wraps errors from the AI enrichment step.
type EnrichError struct {
	Title string
	Err   error
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrich error for %q: %v", e.Title, e.Err)
}

func (e *EnrichError) Unwrap() error { return e.Err }
