package scraper

import "errors"

// Scrape pipeline errors
var (
	// ErrSymbolNotFound means the page loaded but carried no company name,
	// which is how the upstream renders an unknown symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUpstreamStatus means the upstream answered with a non-200 status
	ErrUpstreamStatus = errors.New("upstream returned non-200 status")

	// ErrChallenge means the upstream served a CAPTCHA challenge page
	ErrChallenge = errors.New("upstream served a challenge page")

	// ErrCaptchaDisabled means a challenge was hit but no solver is configured
	ErrCaptchaDisabled = errors.New("captcha solver not configured")

	// ErrCaptchaUnsolved means the solver gave up on the challenge
	ErrCaptchaUnsolved = errors.New("captcha solver failed to produce a token")

	// ErrMissingData means a required page element could not be parsed
	ErrMissingData = errors.New("required data missing from page")
)
