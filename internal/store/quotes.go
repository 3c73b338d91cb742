package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockwatch/pkg/contracts/domain"
)

// UpsertQuote stores a scraped quote, replacing any earlier scrape for the
// same symbol and date.
func (s *Store) UpsertQuote(ctx context.Context, quote *domain.Quote) error {
	competitors, err := json.Marshal(quote.Competitors)
	if err != nil {
		return fmt.Errorf("failed to encode competitors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			symbol, quote_date, company_name,
			open, high, low, close,
			perf_five_days, perf_one_month, perf_three_months,
			perf_year_to_date, perf_one_year,
			competitors, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, quote_date) DO UPDATE SET
			company_name      = excluded.company_name,
			open              = excluded.open,
			high              = excluded.high,
			low               = excluded.low,
			close             = excluded.close,
			perf_five_days    = excluded.perf_five_days,
			perf_one_month    = excluded.perf_one_month,
			perf_three_months = excluded.perf_three_months,
			perf_year_to_date = excluded.perf_year_to_date,
			perf_one_year     = excluded.perf_one_year,
			competitors       = excluded.competitors,
			scraped_at        = excluded.scraped_at`,
		quote.Symbol, quote.QuoteDate, quote.CompanyName,
		quote.Open, quote.High, quote.Low, quote.Close,
		quote.Performance.FiveDays, quote.Performance.OneMonth,
		quote.Performance.ThreeMonths, quote.Performance.YearToDate,
		quote.Performance.OneYear,
		string(competitors), quote.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quote: %w", err)
	}
	return nil
}

// GetQuote returns the stored quote for a symbol on a given date
func (s *Store) GetQuote(ctx context.Context, symbol, quoteDate string) (*domain.Quote, error) {
	return s.scanQuote(s.db.QueryRowContext(ctx, `
		SELECT symbol, quote_date, company_name,
		       open, high, low, close,
		       perf_five_days, perf_one_month, perf_three_months,
		       perf_year_to_date, perf_one_year,
		       competitors, scraped_at
		FROM quotes WHERE symbol = ? AND quote_date = ?`,
		symbol, quoteDate,
	))
}

// GetFreshQuote returns the quote for a symbol on a given date only when it
// was scraped after the freshness cutoff.
func (s *Store) GetFreshQuote(ctx context.Context, symbol, quoteDate string, scrapedAfter time.Time) (*domain.Quote, error) {
	return s.scanQuote(s.db.QueryRowContext(ctx, `
		SELECT symbol, quote_date, company_name,
		       open, high, low, close,
		       perf_five_days, perf_one_month, perf_three_months,
		       perf_year_to_date, perf_one_year,
		       competitors, scraped_at
		FROM quotes WHERE symbol = ? AND quote_date = ? AND scraped_at > ?`,
		symbol, quoteDate, scrapedAfter,
	))
}

// GetLatestQuote returns the most recent quote for a symbol regardless of
// date, used to price wallet holdings.
func (s *Store) GetLatestQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return s.scanQuote(s.db.QueryRowContext(ctx, `
		SELECT symbol, quote_date, company_name,
		       open, high, low, close,
		       perf_five_days, perf_one_month, perf_three_months,
		       perf_year_to_date, perf_one_year,
		       competitors, scraped_at
		FROM quotes WHERE symbol = ?
		ORDER BY quote_date DESC, scraped_at DESC LIMIT 1`,
		symbol,
	))
}

func (s *Store) scanQuote(row *sql.Row) (*domain.Quote, error) {
	var quote domain.Quote
	var competitors string
	err := row.Scan(
		&quote.Symbol, &quote.QuoteDate, &quote.CompanyName,
		&quote.Open, &quote.High, &quote.Low, &quote.Close,
		&quote.Performance.FiveDays, &quote.Performance.OneMonth,
		&quote.Performance.ThreeMonths, &quote.Performance.YearToDate,
		&quote.Performance.OneYear,
		&competitors, &quote.ScrapedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}
	if err := json.Unmarshal([]byte(competitors), &quote.Competitors); err != nil {
		return nil, fmt.Errorf("failed to decode competitors: %w", err)
	}
	return &quote, nil
}
