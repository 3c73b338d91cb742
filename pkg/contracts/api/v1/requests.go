// Package api contains the API contract definitions for the stock tracking
// service. Version v1 represents the current stable API version.
package api

import (
	"stockwatch/pkg/contracts/domain"
)

// Auth API Requests

// RegisterRequest creates a new user account
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest authenticates a user
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Stock API Requests

// TrackStockRequest adds a symbol to the tracked set
type TrackStockRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=10"`
}

// Wallet API Requests

// CreateTransactionRequest records a wallet operation
type CreateTransactionRequest struct {
	Symbol    string  `json:"symbol" validate:"required,min=1,max=10"`
	Operation string  `json:"operation" validate:"required,oneof=buy sell hold"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// API Responses

// AuthResponse carries the issued token and the user it belongs to
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int          `json:"expires_in"`
	User      *domain.User `json:"user"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	User *domain.User `json:"user"`
}

// QuoteResponse wraps a resolved quote
type QuoteResponse struct {
	Quote *domain.Quote `json:"quote"`
}

// StockResponse wraps a tracked stock
type StockResponse struct {
	Stock *domain.Stock `json:"stock"`
}

// StockListResponse wraps the tracked stock set
type StockListResponse struct {
	Stocks []domain.Stock `json:"stocks"`
	Count  int            `json:"count"`
}

// TransactionResponse wraps a recorded transaction
type TransactionResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
}

// HistoryResponse wraps a user's transaction history
type HistoryResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

// HoldingsResponse wraps a user's aggregated wallet positions
type HoldingsResponse struct {
	Holdings []domain.Holding `json:"holdings"`
	Count    int              `json:"count"`
}
