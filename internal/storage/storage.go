package storage

import (
	"github.com/nexusintel/nexus/internal/types"
)

// ProductStore archives scraped record sets beyond the request-serving
// file cache. Archival is best-effort: the pipeline logs store
// failures but still serves the result set.
type ProductStore interface {
	// Archive persists one result set for a query.
	Archive(query string, records []types.ProductRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}
