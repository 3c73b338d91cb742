package services

import "errors"

// Service-level sentinel errors. Handlers map these to problem responses.
var (
	ErrUsernameTaken    = errors.New("username already registered")
	ErrBadCredentials   = errors.New("invalid username or password")
	ErrUserNotFound     = errors.New("user not found")
	ErrStockNotFound    = errors.New("stock not found")
	ErrStockExists      = errors.New("stock already tracked")
	ErrQuoteUnavailable = errors.New("quote unavailable")
	ErrInvalidOperation = errors.New("invalid wallet operation")
)
