package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CaptchaSolver submits reCAPTCHA challenges to a paid solving service and
// polls for the response token. The wire format follows the common
// in.php/res.php convention.
type CaptchaSolver struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxPolls     int
	logger       *slog.Logger
}

// NewCaptchaSolver creates a solver against the given service endpoint
func NewCaptchaSolver(apiKey, baseURL string, logger *slog.Logger) *CaptchaSolver {
	return &CaptchaSolver{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: 5 * time.Second,
		maxPolls:     24,
		logger:       logger.With(slog.String("component", "captcha_solver")),
	}
}

// Enabled reports whether an API key is configured
func (s *CaptchaSolver) Enabled() bool {
	return s != nil && s.apiKey != ""
}

type solverResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// Solve submits a reCAPTCHA site key and page URL and waits for the token
func (s *CaptchaSolver) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	id, err := s.submit(ctx, siteKey, pageURL)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "challenge submitted", slog.String("task_id", id))

	for i := 0; i < s.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}

		token, ready, err := s.poll(ctx, id)
		if err != nil {
			return "", err
		}
		if ready {
			return token, nil
		}
	}

	return "", ErrCaptchaUnsolved
}

func (s *CaptchaSolver) submit(ctx context.Context, siteKey, pageURL string) (string, error) {
	form := url.Values{
		"key":       {s.apiKey},
		"method":    {"userrecaptcha"},
		"googlekey": {siteKey},
		"pageurl":   {pageURL},
		"json":      {"1"},
	}

	resp, err := s.post(ctx, s.baseURL+"/in.php", form)
	if err != nil {
		return "", err
	}
	if resp.Status != 1 {
		return "", fmt.Errorf("%w: submit rejected: %s", ErrCaptchaUnsolved, resp.Request)
	}
	return resp.Request, nil
}

func (s *CaptchaSolver) poll(ctx context.Context, id string) (token string, ready bool, err error) {
	endpoint := fmt.Sprintf("%s/res.php?key=%s&action=get&id=%s&json=1",
		s.baseURL, url.QueryEscape(s.apiKey), url.QueryEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build poll request: %w", err)
	}

	resp, err := s.do(req)
	if err != nil {
		return "", false, err
	}

	if resp.Status == 1 {
		return resp.Request, true, nil
	}
	if resp.Request == "CAPCHA_NOT_READY" {
		return "", false, nil
	}
	return "", false, fmt.Errorf("%w: %s", ErrCaptchaUnsolved, resp.Request)
}

func (s *CaptchaSolver) post(ctx context.Context, endpoint string, form url.Values) (*solverResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.do(req)
}

func (s *CaptchaSolver) do(req *http.Request) (*solverResponse, error) {
	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solver request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read solver response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solver returned status %d", httpResp.StatusCode)
	}

	var resp solverResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode solver response: %w", err)
	}
	return &resp, nil
}
