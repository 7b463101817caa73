package cache

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

func testCache(t *testing.T) *FileCache {
	t.Helper()
	base := t.TempDir()
	cfg := config.Cache{
		RawDir:       filepath.Join(base, "raw"),
		ProcessedDir: filepath.Join(base, "processed"),
		TTL:          24 * time.Hour,
	}
	c, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func sampleRecords() []types.ProductRecord {
	return []types.ProductRecord{
		{
			Title:     "Sony WH-1000XM5 Wireless Headphones",
			Price:     29990,
			Rating:    4.5,
			URL:       "https://www.amazon.in/dp/B09XSQH1QH",
			Platform:  "Amazon",
			ScrapedAt: "2026-03-14T15:09:26Z",
		},
		{
			Title:     "Sony WH-CH520 Wireless Headphones",
			Price:     3989,
			Rating:    4.2,
			URL:       "https://www.amazon.in/dp/B0BS1PRC4L",
			Platform:  "Amazon",
			ScrapedAt: "2026-03-14T15:09:26Z",
			Insight: &types.Insight{
				Category:        "Audio",
				TargetAudience:  []string{"Commuters"},
				ImpliedFeatures: []string{"Bluetooth", "Long battery"},
				ValueProp:       "Budget wireless listening",
			},
		},
	}
}

func TestStoreLookupRoundTrip(t *testing.T) {
	c := testCache(t)
	records := sampleRecords()

	if _, err := c.Store("Sony Headphones", records); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := c.Lookup("sony headphones")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, records)
	}
}

func TestLookupMiss(t *testing.T) {
	c := testCache(t)
	if _, err := c.Lookup("never stored"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestLookupExpired(t *testing.T) {
	c := testCache(t)
	if _, err := c.Store("sony headphones", sampleRecords()); err != nil {
		t.Fatalf("Store: %v", err)
	}

	c.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := c.Lookup("sony headphones"); !errors.Is(err, types.ErrCacheExpired) {
		t.Errorf("err = %v, want ErrCacheExpired", err)
	}
}

func TestLookupPicksNewestFile(t *testing.T) {
	c := testCache(t)

	older := []types.ProductRecord{{Title: "Old Result", Price: 1, Platform: "Amazon"}}
	newer := []types.ProductRecord{{Title: "New Result", Price: 2, Platform: "Amazon"}}

	oldPath := filepath.Join(c.cfg.ProcessedDir, "sony_headphones_20260101_000000.csv")
	newPath := filepath.Join(c.cfg.ProcessedDir, "sony_headphones_20260102_000000.csv")
	if err := WriteCSV(oldPath, older); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(newPath, newer); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := c.Lookup("sony headphones")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 || got[0].Title != "New Result" {
		t.Errorf("got %+v, want the newer file's records", got)
	}
}

func TestLookupIsolatesKeys(t *testing.T) {
	c := testCache(t)
	if _, err := c.Store("sony headphones", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup("bose headphones"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss for a different key", err)
	}
}

func TestClearAll(t *testing.T) {
	c := testCache(t)
	if _, err := c.Store("sony headphones", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	rawFile := filepath.Join(c.cfg.RawDir, "amazon_sony_headphones_20260101_000000.html")
	if err := os.WriteFile(rawFile, []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Files with other extensions survive a clear.
	keep := filepath.Join(c.cfg.ProcessedDir, "notes.txt")
	if err := os.WriteFile(keep, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.ClearAll()
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("non-cache file deleted: %v", err)
	}
	if _, err := c.Lookup("sony headphones"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss after clear", err)
	}
}

func TestReadCSVEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_20260101_000000.csv")
	if err := WriteCSV(path, nil); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for header-only file", got)
	}
}
