package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stockwatch/pkg/contracts/domain"
)

// CreateStock registers a symbol in the tracked set. Returns ErrDuplicate
// when the symbol is already tracked.
func (s *Store) CreateStock(ctx context.Context, stock *domain.Stock) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stocks (symbol, company_name, created_at) VALUES (?, ?, ?)`,
		stock.Symbol, stock.CompanyName, stock.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create stock: %w", err)
	}
	return nil
}

// GetStock looks up a tracked stock by symbol
func (s *Store) GetStock(ctx context.Context, symbol string) (*domain.Stock, error) {
	var stock domain.Stock
	err := s.db.QueryRowContext(ctx,
		`SELECT symbol, company_name, created_at FROM stocks WHERE symbol = ?`,
		symbol,
	).Scan(&stock.Symbol, &stock.CompanyName, &stock.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &stock, nil
}

// ListStocks returns all tracked stocks ordered by symbol
func (s *Store) ListStocks(ctx context.Context) ([]domain.Stock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, company_name, created_at FROM stocks ORDER BY symbol`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]domain.Stock, 0)
	for rows.Next() {
		var stock domain.Stock
		if err := rows.Scan(&stock.Symbol, &stock.CompanyName, &stock.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}
	return stocks, rows.Err()
}

// UpdateStockName refreshes the company name after a successful scrape
func (s *Store) UpdateStockName(ctx context.Context, symbol, companyName string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE stocks SET company_name = ? WHERE symbol = ?`,
		companyName, symbol,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock name: %w", err)
	}
	return nil
}

// DeleteStock removes a symbol from the tracked set
func (s *Store) DeleteStock(ctx context.Context, symbol string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stocks WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
