package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

var csvHeader = []string{
	"title", "price", "rating", "url", "platform", "scraped_at",
	"ai_category", "ai_target_audience", "ai_implied_features", "ai_value_prop",
}

const featureSep = "; "

// FileCache stores processed result sets as CSV files named
// {query_key}_{timestamp}.csv. A lookup returns the newest file for
// the key, or a miss when none exists or the newest is older than the
// TTL. Freshness is judged by file modification time, so externally
// touched files count as fresh.
type FileCache struct {
	cfg    config.Cache
	logger *slog.Logger
	now    func() time.Time
}

// New creates the cache, ensuring both data directories exist. When
// ClearOnBoot is set, stale captures from previous runs are removed so
// the first request of a fresh process never serves another query's
// leftovers.
func New(cfg config.Cache, logger *slog.Logger) (*FileCache, error) {
	for _, dir := range []string{cfg.RawDir, cfg.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &types.StorageError{Backend: "cache", Err: err}
		}
	}

	c := &FileCache{
		cfg:    cfg,
		logger: logger.With("component", "cache"),
		now:    time.Now,
	}

	if cfg.ClearOnBoot {
		n, err := c.ClearAll()
		if err != nil {
			return nil, err
		}
		c.logger.Info("boot clear", "deleted", n)
	}
	return c, nil
}

// Lookup returns the cached records for query, or ErrCacheMiss when no
// file exists for its key, or ErrCacheExpired when the newest file has
// outlived the TTL. Callers treat both errors as "run the pipeline".
func (c *FileCache) Lookup(query string) ([]types.ProductRecord, error) {
	key := types.QueryKey(query)
	matches, err := filepath.Glob(filepath.Join(c.cfg.ProcessedDir, key+"_*.csv"))
	if err != nil || len(matches) == 0 {
		return nil, types.ErrCacheMiss
	}

	latest, mtime, err := newestFile(matches)
	if err != nil {
		return nil, types.ErrCacheMiss
	}
	if c.now().Sub(mtime) > c.cfg.TTL {
		c.logger.Debug("cache entry expired", "key", key, "file", filepath.Base(latest))
		return nil, types.ErrCacheExpired
	}

	records, err := ReadCSV(latest)
	if err != nil {
		return nil, err
	}
	c.logger.Info("cache hit", "key", key, "file", filepath.Base(latest), "records", len(records))
	return records, nil
}

// Store writes records as a new CSV for query and returns the path.
func (c *FileCache) Store(query string, records []types.ProductRecord) (string, error) {
	name := types.QueryKey(query) + "_" + types.Timestamp(c.now()) + ".csv"
	path := filepath.Join(c.cfg.ProcessedDir, name)
	if err := WriteCSV(path, records); err != nil {
		return "", err
	}
	c.logger.Info("result set cached", "file", name, "records", len(records))
	return path, nil
}

// ClearAll deletes every raw capture and processed result set and
// returns the number of files removed.
func (c *FileCache) ClearAll() (int, error) {
	deleted := 0
	for dir, ext := range map[string]string{
		c.cfg.RawDir:       ".html",
		c.cfg.ProcessedDir: ".csv",
	} {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return deleted, &types.StorageError{Backend: "cache", Err: err}
				}
				continue
			}
			deleted++
		}
	}
	if deleted > 0 {
		c.logger.Debug("cache cleared", "deleted", deleted)
	}
	return deleted, nil
}

// WriteCSV writes records to path, header first.
func WriteCSV(path string, records []types.ProductRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	for _, rec := range records {
		if err := w.Write(recordToRow(rec)); err != nil {
			return &types.StorageError{Backend: "csv", Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	return nil
}

// ReadCSV reads a result set written by WriteCSV.
func ReadCSV(path string) ([]types.ProductRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: err}
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]types.ProductRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, &types.StorageError{Backend: "csv", Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordToRow(rec types.ProductRecord) []string {
	row := []string{
		rec.Title,
		strconv.FormatFloat(rec.Price, 'f', -1, 64),
		strconv.FormatFloat(rec.Rating, 'f', -1, 64),
		rec.URL,
		rec.Platform,
		rec.ScrapedAt,
		"", "", "", "",
	}
	if in := rec.Insight; in != nil {
		row[6] = in.Category
		row[7] = strings.Join(in.TargetAudience, featureSep)
		row[8] = strings.Join(in.ImpliedFeatures, featureSep)
		row[9] = in.ValueProp
	}
	return row
}

func rowToRecord(row []string) (types.ProductRecord, error) {
	if len(row) < 6 {
		return types.ProductRecord{}, fmt.Errorf("short row: %d columns", len(row))
	}
	price, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return types.ProductRecord{}, fmt.Errorf("price %q: %w", row[1], err)
	}
	rating, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return types.ProductRecord{}, fmt.Errorf("rating %q: %w", row[2], err)
	}

	rec := types.ProductRecord{
		Title:     row[0],
		Price:     price,
		Rating:    rating,
		URL:       row[3],
		Platform:  row[4],
		ScrapedAt: row[5],
	}
	if len(row) >= 10 && (row[6] != "" || row[7] != "" || row[8] != "" || row[9] != "") {
		rec.Insight = &types.Insight{
			Category:        row[6],
			TargetAudience:  splitList(row[7]),
			ImpliedFeatures: splitList(row[8]),
			ValueProp:       row[9],
		}
	}
	return rec, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, featureSep)
}

// newestFile returns the path and mtime of the most recently modified
// file among paths.
func newestFile(paths []string) (string, time.Time, error) {
	var (
		latest string
		mtime  time.Time
	)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(mtime) {
			latest = p
			mtime = info.ModTime()
		}
	}
	if latest == "" {
		return "", time.Time{}, os.ErrNotExist
	}
	return latest, mtime, nil
}
