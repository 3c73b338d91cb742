package domain

import (
	"time"
)

// Operation is the kind of wallet transaction.
type Operation string

const (
	OperationBuy  Operation = "buy"
	OperationSell Operation = "sell"
	OperationHold Operation = "hold"
)

// Valid reports whether op is one of the known operations.
func (op Operation) Valid() bool {
	switch op {
	case OperationBuy, OperationSell, OperationHold:
		return true
	}
	return false
}

// Transaction is a single wallet entry owned by a user.
type Transaction struct {
	ID         string    `json:"id" db:"id" validate:"required,uuid"`
	UserID     string    `json:"user_id" db:"user_id" validate:"required,uuid"`
	Symbol     string    `json:"symbol" db:"symbol" validate:"required,min=1,max=10"`
	Operation  Operation `json:"operation" db:"operation" validate:"required,oneof=buy sell hold"`
	Quantity   float64   `json:"quantity" db:"quantity" validate:"gt=0"`
	UnitPrice  float64   `json:"unit_price" db:"unit_price" validate:"gte=0"`
	ExecutedAt time.Time `json:"executed_at" db:"executed_at"`
}

// Holding is an aggregated wallet position for one symbol.
// Quantity is SUM(buys) - SUM(sells); hold entries carry no quantity delta.
type Holding struct {
	Symbol       string   `json:"symbol"`
	CompanyName  string   `json:"company_name,omitempty"`
	Quantity     float64  `json:"quantity"`
	AvgBuyPrice  float64  `json:"avg_buy_price"`
	TotalSpent   float64  `json:"total_spent"`
	LastPrice    *float64 `json:"last_price,omitempty"`
	CurrentValue *float64 `json:"current_value,omitempty"`
}
