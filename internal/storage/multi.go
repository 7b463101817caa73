package storage

import (
	"log/slog"

	"github.com/nexusintel/nexus/internal/types"
)

// MultiStore fans one result set out to several backends. The first
// error is reported after every backend has been attempted.
type MultiStore struct {
	backends []ProductStore
	logger   *slog.Logger
}

// NewMultiStore creates a store that archives to all backends.
func NewMultiStore(backends []ProductStore, logger *slog.Logger) *MultiStore {
	return &MultiStore{
		backends: backends,
		logger:   logger.With("component", "multi_store"),
	}
}

func (s *MultiStore) Name() string { return "multi" }

func (s *MultiStore) Archive(query string, records []types.ProductRecord) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Archive(query, records); err != nil {
			s.logger.Error("backend archive failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStore) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
