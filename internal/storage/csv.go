package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nexusintel/nexus/internal/cache"
	"github.com/nexusintel/nexus/internal/types"
)

// CSVStore archives result sets as CSV files under a directory that,
// unlike the cache, is never cleared. Files share the cache's
// {query_key}_{timestamp}.csv naming so the two stay diffable.
type CSVStore struct {
	dir    string
	logger *slog.Logger
}

// NewCSVStore creates the archive directory if needed.
func NewCSVStore(dir string, logger *slog.Logger) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "csv_archive", Err: err}
	}
	return &CSVStore{
		dir:    dir,
		logger: logger.With("component", "csv_archive"),
	}, nil
}

func (s *CSVStore) Name() string { return "csv_archive" }

func (s *CSVStore) Archive(query string, records []types.ProductRecord) error {
	name := types.QueryKey(query) + "_" + types.Timestamp(time.Now()) + ".csv"
	path := filepath.Join(s.dir, name)
	if err := cache.WriteCSV(path, records); err != nil {
		return err
	}
	s.logger.Info("result set archived", "file", name, "records", len(records))
	return nil
}

func (s *CSVStore) Close() error { return nil }
