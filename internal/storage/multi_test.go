package storage

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nexusintel/nexus/internal/types"
)

type fakeStore struct {
	name     string
	archived int
	closed   bool
	err      error
}

func (f *fakeStore) Archive(query string, records []types.ProductRecord) error {
	if f.err != nil {
		return f.err
	}
	f.archived += len(records)
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func (f *fakeStore) Name() string { return f.name }

func TestMultiStoreFansOut(t *testing.T) {
	a := &fakeStore{name: "a"}
	b := &fakeStore{name: "b"}
	m := NewMultiStore([]ProductStore{a, b}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	records := []types.ProductRecord{{Title: "Sony WH-1000XM5 Wireless Headphones", Price: 29990}}
	if err := m.Archive("sony headphones", records); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if a.archived != 1 || b.archived != 1 {
		t.Errorf("archived a=%d b=%d, want 1/1", a.archived, b.archived)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("not all backends closed")
	}
}

func TestMultiStoreContinuesPastFailure(t *testing.T) {
	boom := errors.New("backend down")
	a := &fakeStore{name: "a", err: boom}
	b := &fakeStore{name: "b"}
	m := NewMultiStore([]ProductStore{a, b}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := m.Archive("sony headphones", []types.ProductRecord{{Title: "T", Price: 1}})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the failing backend's error", err)
	}
	if b.archived != 1 {
		t.Error("healthy backend skipped after earlier failure")
	}
}
