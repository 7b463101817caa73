// Package nexus provides a client SDK for the Nexus product-intelligence API.
//
// Example usage:
//
//	client := nexus.NewClient("http://localhost:8000")
//
//	resp, err := client.Products(ctx, "sony headphones",
//	    nexus.WithLimit(10),
//	    nexus.WithMinRating(4.0),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range resp.Products {
//	    fmt.Println(p.Title, p.Price)
//	}
package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nexusintel/nexus/internal/types"
)

// ProductResponse is the envelope returned by the products endpoint.
type ProductResponse struct {
	Query    string                `json:"query"`
	Count    int                   `json:"count"`
	Products []types.ProductRecord `json:"products"`
	Cached   bool                  `json:"cached"`
}

// Health is the server health report.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Client talks to a running Nexus API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the request timeout. A fresh scrape can take
// minutes, so the default is generous.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryOption narrows a products request.
type QueryOption func(url.Values)

// WithLimit caps the number of returned products.
func WithLimit(n int) QueryOption {
	return func(v url.Values) { v.Set("limit", strconv.Itoa(n)) }
}

// WithMinRating drops products rated below r.
func WithMinRating(r float64) QueryOption {
	return func(v url.Values) { v.Set("min_rating", strconv.FormatFloat(r, 'f', -1, 64)) }
}

// Products searches for query, triggering a scrape when no fresh
// cached result set exists.
func (c *Client) Products(ctx context.Context, query string, opts ...QueryOption) (*ProductResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	for _, opt := range opts {
		opt(params)
	}

	var resp ProductResponse
	if err := c.get(ctx, "/api/products?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Stats returns the server's counter snapshot.
func (c *Client) Stats(ctx context.Context) (map[string]int64, error) {
	var stats map[string]int64
	if err := c.get(ctx, "/api/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// ClearCache deletes all cached result sets on the server and returns
// the number of files removed.
func (c *Client) ClearCache(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/cache/clear", nil)
	if err != nil {
		return 0, err
	}
	var body struct {
		Deleted int `json:"deleted"`
	}
	if err := c.do(req, &body); err != nil {
		return 0, err
	}
	return body.Deleted, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("API status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("API status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
