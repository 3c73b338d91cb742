// Package scraper fetches and parses quote pages from the upstream
// financial site. Requests go through a rate limiter and present browser
// headers; challenge pages can be solved through a paid solver service,
// and a headless browser fetch is available for pages that need JS.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"stockwatch/internal/config"
)

// maxBodySize caps how much of a quote page is read into memory
const maxBodySize = 4 << 20

var siteKeyPattern = regexp.MustCompile(`data-sitekey="([^"]+)"`)

// browserHeaders are sent on every upstream request
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.109 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Referer":         "https://www.google.com/",
}

// Fetcher retrieves the raw HTML of a quote page
type Fetcher interface {
	FetchPage(ctx context.Context, pageURL string) ([]byte, error)
}

// Scraper is the quote scraping pipeline
type Scraper struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	solver  *CaptchaSolver
	browser Fetcher
	logger  *slog.Logger
}

// Option configures a Scraper
type Option func(*Scraper)

// WithSolver attaches a challenge solver
func WithSolver(solver *CaptchaSolver) Option {
	return func(s *Scraper) { s.solver = solver }
}

// WithBrowser attaches a rendered-page fetcher used as a fallback
func WithBrowser(browser Fetcher) Option {
	return func(s *Scraper) { s.browser = browser }
}

// New creates a scraper from config. The HTTP session carries a cookie jar
// so upstream session cookies survive across requests.
func New(cfg config.ScraperConfig, logger *slog.Logger, opts ...Option) (*Scraper, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	s := &Scraper{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  logger.With(slog.String("component", "scraper")),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// PageURL returns the upstream URL for a symbol
func (s *Scraper) PageURL(symbol string) string {
	return s.baseURL + "/" + url.PathEscape(strings.ToLower(symbol))
}

// Scrape fetches and parses the quote page for a symbol. Challenge pages
// are solved when a solver is configured; pages that still fail to parse
// are retried through the browser fetcher when one is attached.
func (s *Scraper) Scrape(ctx context.Context, symbol string) (*ParsedQuote, error) {
	pageURL := s.PageURL(symbol)

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if siteKey, challenged := detectChallenge(body); challenged {
		body, err = s.solveChallenge(ctx, pageURL, siteKey)
		if err != nil {
			return nil, err
		}
	}

	parsed, err := ParseQuotePage(bytes.NewReader(body))
	if err == nil {
		return parsed, nil
	}
	if s.browser == nil {
		return nil, err
	}

	s.logger.WarnContext(ctx, "static fetch failed, retrying with browser",
		slog.String("symbol", symbol),
		slog.String("error", err.Error()),
	)

	rendered, browserErr := s.browser.FetchPage(ctx, pageURL)
	if browserErr != nil {
		return nil, fmt.Errorf("browser fetch failed: %w", browserErr)
	}
	return ParseQuotePage(bytes.NewReader(rendered))
}

// fetch performs a rate-limited GET and returns the page body
func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	return body, nil
}

// solveChallenge solves a challenge page, posts the token back and
// refetches the original page.
func (s *Scraper) solveChallenge(ctx context.Context, pageURL, siteKey string) ([]byte, error) {
	if !s.solver.Enabled() {
		return nil, ErrCaptchaDisabled
	}

	s.logger.InfoContext(ctx, "challenge page detected", slog.String("url", pageURL))

	token, err := s.solver.Solve(ctx, siteKey, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallenge, err)
	}

	if err := s.submitToken(ctx, pageURL, token); err != nil {
		return nil, err
	}

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if _, challenged := detectChallenge(body); challenged {
		return nil, ErrChallenge
	}
	return body, nil
}

// submitToken posts the solved token back to the challenge page so the
// upstream sets its clearance cookie on the session jar.
func (s *Scraper) submitToken(ctx context.Context, pageURL, token string) error {
	form := url.Values{"g-recaptcha-response": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pageURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("token submission failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	return nil
}

// detectChallenge reports whether the body is a CAPTCHA challenge page and
// returns its site key when present.
func detectChallenge(body []byte) (siteKey string, challenged bool) {
	if !bytes.Contains(body, []byte("g-recaptcha")) && !bytes.Contains(body, []byte("captcha-delivery")) {
		return "", false
	}
	if m := siteKeyPattern.FindSubmatch(body); m != nil {
		return string(m[1]), true
	}
	return "", true
}
