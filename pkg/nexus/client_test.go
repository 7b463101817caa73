package nexus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "sony headphones" || q.Get("limit") != "10" || q.Get("min_rating") != "4" {
			t.Errorf("params = %v", q)
		}
		io.WriteString(w, `{"query":"sony headphones","count":1,"cached":true,`+
			`"products":[{"title":"Sony WH-1000XM5 Wireless Headphones","price":29990,"rating":4.5,"platform":"Amazon"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Products(context.Background(), "sony headphones", WithLimit(10), WithMinRating(4))
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if resp.Count != 1 || !resp.Cached {
		t.Errorf("count=%d cached=%v", resp.Count, resp.Cached)
	}
	if resp.Products[0].Price != 29990 {
		t.Errorf("price = %v", resp.Products[0].Price)
	}
}

func TestProductsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"query must be at least 2 characters"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Products(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
}

func TestHealthAndStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			io.WriteString(w, `{"status":"healthy","timestamp":"2026-03-14T15:09:26Z","version":"dev"}`)
		case "/api/stats":
			io.WriteString(w, `{"searches_total":3,"cache_hits":1}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" {
		t.Errorf("status = %q", h.Status)
	}

	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["searches_total"] != 3 {
		t.Errorf("searches_total = %d", stats["searches_total"])
	}
}

func TestClearCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		io.WriteString(w, `{"status":"cleared","deleted":7}`)
	}))
	defer srv.Close()

	n, err := NewClient(srv.URL).ClearCache(context.Background())
	if err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if n != 7 {
		t.Errorf("deleted = %d, want 7", n)
	}
}
