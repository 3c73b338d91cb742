package store

import (
	"context"
	"fmt"

	"stockwatch/pkg/contracts/domain"
)

// CreateTransaction records a wallet operation for a user
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, symbol, operation, quantity, unit_price, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Symbol, string(tx.Operation), tx.Quantity, tx.UnitPrice, tx.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns a user's transactions, newest first
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, symbol, operation, quantity, unit_price, executed_at
		FROM transactions WHERE user_id = ?
		ORDER BY executed_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		var operation string
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Symbol, &operation, &tx.Quantity, &tx.UnitPrice, &tx.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Operation = domain.Operation(operation)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// positionRow is the per-symbol aggregate produced by AggregatePositions
type positionRow struct {
	Symbol     string
	Bought     float64
	Sold       float64
	TotalSpent float64
}

// AggregatePositions folds a user's buy and sell transactions into
// per-symbol positions. Holds carry no quantity and are excluded; sells in
// excess of buys clamp the position at zero.
func (s *Store) AggregatePositions(ctx context.Context, userID string) ([]domain.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.symbol,
		       COALESCE(SUM(CASE WHEN t.operation = 'buy'  THEN t.quantity END), 0) AS bought,
		       COALESCE(SUM(CASE WHEN t.operation = 'sell' THEN t.quantity END), 0) AS sold,
		       COALESCE(SUM(CASE WHEN t.operation = 'buy'  THEN t.quantity * t.unit_price END), 0) AS total_spent,
		       COALESCE(st.company_name, '') AS company_name
		FROM transactions t
		LEFT JOIN stocks st ON st.symbol = t.symbol
		WHERE t.user_id = ? AND t.operation != 'hold'
		GROUP BY t.symbol
		ORDER BY t.symbol`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate positions: %w", err)
	}
	defer rows.Close()

	holdings := make([]domain.Holding, 0)
	for rows.Next() {
		var row positionRow
		var companyName string
		if err := rows.Scan(&row.Symbol, &row.Bought, &row.Sold, &row.TotalSpent, &companyName); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		quantity := row.Bought - row.Sold
		if quantity < 0 {
			quantity = 0
		}

		holding := domain.Holding{
			Symbol:      row.Symbol,
			CompanyName: companyName,
			Quantity:    quantity,
			TotalSpent:  row.TotalSpent,
		}
		if row.Bought > 0 {
			holding.AvgBuyPrice = row.TotalSpent / row.Bought
		}
		holdings = append(holdings, holding)
	}
	return holdings, rows.Err()
}
