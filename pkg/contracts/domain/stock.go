package domain

import (
	"strings"
	"time"
)

// Stock represents a tracked stock symbol.
type Stock struct {
	Symbol      string    `json:"symbol" db:"symbol" validate:"required,min=1,max=10"`
	CompanyName string    `json:"company_name" db:"company_name" validate:"required"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NormalizeSymbol canonicalizes a user-supplied symbol for lookups and keys.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Quote is a single day's scraped snapshot for a symbol.
type Quote struct {
	Symbol      string       `json:"symbol" db:"symbol" validate:"required"`
	CompanyName string       `json:"company_name" db:"company_name"`
	QuoteDate   string       `json:"quote_date" db:"quote_date"` // YYYY-MM-DD, UTC
	Open        float64      `json:"open" db:"open" validate:"min=0"`
	High        float64      `json:"high" db:"high" validate:"min=0"`
	Low         float64      `json:"low" db:"low" validate:"min=0"`
	Close       float64      `json:"close" db:"close" validate:"min=0"`
	Performance Performance  `json:"performance" db:"-"`
	Competitors []Competitor `json:"competitors,omitempty" db:"-"`
	ScrapedAt   time.Time    `json:"scraped_at" db:"scraped_at"`
}

// Performance holds the percentage change columns of the performance table.
type Performance struct {
	FiveDays    float64 `json:"five_days" db:"perf_five_days"`
	OneMonth    float64 `json:"one_month" db:"perf_one_month"`
	ThreeMonths float64 `json:"three_months" db:"perf_three_months"`
	YearToDate  float64 `json:"year_to_date" db:"perf_year_to_date"`
	OneYear     float64 `json:"one_year" db:"perf_one_year"`
}

// Competitor is one row of the scraped competitors table.
type Competitor struct {
	Name      string    `json:"name"`
	MarketCap MarketCap `json:"market_cap"`
}

// MarketCap is a parsed market capitalization value.
type MarketCap struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

// QuoteDateFor returns the quote-date key for a point in time.
func QuoteDateFor(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
