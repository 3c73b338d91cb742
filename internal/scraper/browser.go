package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher retrieves pages through a headless Chrome instance.
// Used as a fallback when the static fetch returns an incomplete page.
type BrowserFetcher struct {
	headless bool
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBrowserFetcher creates a chromedp-backed fetcher
func NewBrowserFetcher(headless bool, timeout time.Duration, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		headless: headless,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "browser_fetcher")),
	}
}

// FetchPage navigates to pageURL and returns the rendered HTML
func (b *BrowserFetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, b.timeout)
	defer cancelTimeout()

	start := time.Now()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("browser navigation failed: %w", err)
	}

	b.logger.InfoContext(ctx, "page rendered",
		slog.String("url", pageURL),
		slog.Duration("duration", time.Since(start)),
	)

	return []byte(html), nil
}
