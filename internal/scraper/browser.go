package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

// Browser fetches search pages with a headless Chromium instance via
// Rod. Marketplace result pages lazy-load below the fold, so each page
// is scrolled before its HTML is captured.
type Browser struct {
	browser *rod.Browser
	cfg     config.Scraper
	logger  *slog.Logger
}

// NewBrowser launches a headless browser and connects to it.
func NewBrowser(cfg config.Scraper, logger *slog.Logger) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	b := &Browser{
		browser: browser,
		cfg:     cfg,
		logger:  logger.With("component", "browser_scraper"),
	}
	b.logger.Info("browser ready", "headless", cfg.Headless)
	return b, nil
}

// Search fetches up to MaxPages result pages for term, stopping early
// when a page carries no listings, and writes the combined HTML to the
// raw directory.
func (b *Browser) Search(ctx context.Context, term string) (*Result, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, &types.FetchError{URL: b.cfg.BaseURL, Err: fmt.Errorf("stealth page: %w", err), Retryable: true}
	}
	defer page.Close()
	page = page.Context(ctx)

	if b.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent}); err != nil {
			b.logger.Warn("failed to set user agent", "error", err)
		}
	}

	var pages []string
	cards := 0
	for n := 1; n <= b.cfg.MaxPages; n++ {
		html, count, err := b.fetchPage(page, term, n)
		if err != nil {
			b.logger.Warn("page fetch failed", "term", term, "page", n, "error", err)
			break
		}
		if count == 0 {
			b.logger.Info("no more results", "term", term, "page", n)
			break
		}
		pages = append(pages, html)
		cards += count
		b.logger.Info("page captured", "term", term, "page", n, "cards", count)

		if n < b.cfg.MaxPages {
			if err := sleepCtx(ctx, jitterBetween(b.cfg.MinPageDelay, b.cfg.MaxPageDelay)); err != nil {
				return nil, err
			}
		}
	}

	if len(pages) == 0 {
		return nil, types.ErrNoListings
	}

	combined := JoinPages(pages)
	path, err := SaveRaw(b.cfg.RawDir, term, combined)
	if err != nil {
		return nil, err
	}
	b.logger.Info("raw capture saved", "file", path, "pages", len(pages), "cards", cards)

	return &Result{HTML: combined, Pages: len(pages), Cards: cards, FilePath: path}, nil
}

func (b *Browser) fetchPage(page *rod.Page, term string, n int) (string, int, error) {
	url := SearchURL(b.cfg.BaseURL, term, n)

	if err := page.Timeout(b.cfg.NavTimeout).Navigate(url); err != nil {
		return "", 0, &types.FetchError{URL: url, Page: n, Err: err, Retryable: true}
	}
	if err := page.Timeout(b.cfg.NavTimeout).WaitLoad(); err != nil {
		b.logger.Warn("page load wait timed out, continuing", "url", url, "error", err)
	}

	// The results container renders before individual cards; waiting on
	// it filters out interstitial and captcha pages early.
	if el, err := page.Timeout(10 * time.Second).Element("div.s-main-slot"); err != nil {
		b.logger.Warn("results container not found", "url", url, "error", err)
	} else if err := el.WaitVisible(); err != nil {
		b.logger.Warn("results container not visible", "url", url, "error", err)
	}

	b.scroll(page)

	html, err := page.HTML()
	if err != nil {
		return "", 0, &types.FetchError{URL: url, Page: n, Err: err, Retryable: true}
	}
	return html, CountListings(html), nil
}

// scroll works down the page in viewport-sized steps to trigger lazy
// loading, then jumps to the bottom.
func (b *Browser) scroll(page *rod.Page) {
	for i := 0; i < b.cfg.ScrollPasses; i++ {
		if _, err := page.Eval("() => window.scrollBy(0, window.innerHeight)"); err != nil {
			return
		}
		time.Sleep(jitterBetween(500*time.Millisecond, time.Second))
	}
	if _, err := page.Eval("() => window.scrollTo(0, document.body.scrollHeight)"); err != nil {
		return
	}
	time.Sleep(time.Second)
}

// Close shuts down the browser.
func (b *Browser) Close() error {
	if b.browser != nil {
		return b.browser.Close()
	}
	return nil
}
