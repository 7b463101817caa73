package scraper

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxBodySize caps one result page. Search pages run a few hundred KB;
// anything past this is not a result page.
const maxBodySize = 8 << 20

// HTTPClient fetches search pages over plain HTTP. It is the fallback
// for environments without a browser; marketplaces serve it a reduced
// (sometimes bot-walled) page, so the browser path is preferred.
type HTTPClient struct {
	client *http.Client
	cfg    config.Scraper
	logger *slog.Logger
}

// NewHTTPClient creates the fallback HTTP searcher.
func NewHTTPClient(cfg config.Scraper, logger *slog.Logger) *HTTPClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// Decompression is handled here so brotli works too.
		DisableCompression: true,
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.NavTimeout,
		},
		cfg:    cfg,
		logger: logger.With("component", "http_scraper"),
	}
}

// Search fetches up to MaxPages result pages for term, stopping early
// when a page carries no listings, and writes the combined HTML to the
// raw directory.
func (c *HTTPClient) Search(ctx context.Context, term string) (*Result, error) {
	var pages []string
	cards := 0
	for n := 1; n <= c.cfg.MaxPages; n++ {
		html, err := c.FetchPage(ctx, term, n)
		if err != nil {
			c.logger.Warn("page fetch failed", "term", term, "page", n, "error", err)
			break
		}
		count := CountListings(html)
		if count == 0 {
			c.logger.Info("no more results", "term", term, "page", n)
			break
		}
		pages = append(pages, html)
		cards += count

		if n < c.cfg.MaxPages {
			if err := sleepCtx(ctx, jitterBetween(c.cfg.MinPageDelay, c.cfg.MaxPageDelay)); err != nil {
				return nil, err
			}
		}
	}

	if len(pages) == 0 {
		return nil, types.ErrNoListings
	}

	combined := JoinPages(pages)
	path, err := SaveRaw(c.cfg.RawDir, term, combined)
	if err != nil {
		return nil, err
	}

	return &Result{HTML: combined, Pages: len(pages), Cards: cards, FilePath: path}, nil
}

// FetchPage retrieves a single result page and returns its decoded HTML.
func (c *HTTPClient) FetchPage(ctx context.Context, term string, page int) (string, error) {
	url := SearchURL(c.cfg.BaseURL, term, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &types.FetchError{URL: url, Page: page, Err: err, Retryable: false}
	}

	ua := c.cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &types.FetchError{URL: url, Page: page, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &types.FetchError{
			URL:       url,
			Page:      page,
			Err:       fmt.Errorf("HTTP %d", resp.StatusCode),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	reader, err := decompressReader(resp, io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &types.FetchError{URL: url, Page: page, Err: err, Retryable: false}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &types.FetchError{URL: url, Page: page, Err: err, Retryable: true}
	}

	c.logger.Debug("page fetched",
		"url", url,
		"size", len(body),
		"duration", time.Since(start),
	)
	return string(body), nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// decompressReader wraps a reader with the decompressor matching the
// response's Content-Encoding. Handles gzip, deflate, and brotli.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
