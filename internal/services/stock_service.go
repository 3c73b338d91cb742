package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"stockwatch/internal/infrastructure"
	"stockwatch/internal/scraper"
	"stockwatch/internal/store"
	"stockwatch/pkg/contracts/domain"
)

// StockStore is the persistence surface StockService depends on
type StockStore interface {
	CreateStock(ctx context.Context, stock *domain.Stock) error
	GetStock(ctx context.Context, symbol string) (*domain.Stock, error)
	ListStocks(ctx context.Context) ([]domain.Stock, error)
	UpdateStockName(ctx context.Context, symbol, companyName string) error
	DeleteStock(ctx context.Context, symbol string) error
	UpsertQuote(ctx context.Context, quote *domain.Quote) error
	GetFreshQuote(ctx context.Context, symbol, quoteDate string, scrapedAfter time.Time) (*domain.Quote, error)
	GetLatestQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// QuoteCache is the in-memory layer in front of the store and scraper
type QuoteCache interface {
	Get(symbol, quoteDate string) (*domain.Quote, bool)
	Set(quote domain.Quote)
}

// QuoteScraper fetches a live quote from the upstream site
type QuoteScraper interface {
	Scrape(ctx context.Context, symbol string) (*scraper.ParsedQuote, error)
}

// QuoteBroadcaster pushes quote updates to connected clients
type QuoteBroadcaster interface {
	BroadcastQuote(quote domain.Quote)
}

// StockService resolves quotes through cache, database freshness window and
// live scrape, in that order, and manages the tracked stock set.
type StockService struct {
	store     StockStore
	cache     QuoteCache
	scraper   QuoteScraper
	hub       QuoteBroadcaster
	metrics   *infrastructure.RequestMetrics
	freshness time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewStockService creates a stock service. hub and metrics may be nil.
func NewStockService(
	stockStore StockStore,
	cache QuoteCache,
	quoteScraper QuoteScraper,
	hub QuoteBroadcaster,
	metrics *infrastructure.RequestMetrics,
	freshness time.Duration,
	logger *slog.Logger,
) *StockService {
	return &StockService{
		store:     stockStore,
		cache:     cache,
		scraper:   quoteScraper,
		hub:       hub,
		metrics:   metrics,
		freshness: freshness,
		now:       time.Now,
		logger:    logger.With(slog.String("service", "stock")),
	}
}

// GetQuote returns today's quote for a symbol. Resolution order: in-memory
// cache, then the database when the stored row was scraped within the
// freshness window, then a live scrape whose result is persisted, cached
// and broadcast.
func (s *StockService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	now := s.now()
	quoteDate := domain.QuoteDateFor(now)

	if quote, ok := s.cache.Get(symbol, quoteDate); ok {
		s.count(ctx, s.metricOrNil().CacheHits, symbol)
		return quote, nil
	}
	s.count(ctx, s.metricOrNil().CacheMisses, symbol)

	quote, err := s.store.GetFreshQuote(ctx, symbol, quoteDate, now.Add(-s.freshness))
	if err == nil {
		s.cache.Set(*quote)
		return quote, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to read stored quote: %w", err)
	}

	return s.scrapeAndStore(ctx, symbol, quoteDate, now)
}

func (s *StockService) scrapeAndStore(ctx context.Context, symbol, quoteDate string, now time.Time) (*domain.Quote, error) {
	s.count(ctx, s.metricOrNil().ScrapeTotal, symbol)

	parsed, err := s.scraper.Scrape(ctx, symbol)
	if err != nil {
		s.count(ctx, s.metricOrNil().ScrapeErrors, symbol)
		if errors.Is(err, scraper.ErrSymbolNotFound) {
			return nil, ErrStockNotFound
		}
		s.logger.ErrorContext(ctx, "scrape failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	quote := &domain.Quote{
		Symbol:      symbol,
		CompanyName: parsed.CompanyName,
		QuoteDate:   quoteDate,
		Open:        parsed.Open,
		High:        parsed.High,
		Low:         parsed.Low,
		Close:       parsed.Close,
		Performance: parsed.Performance,
		Competitors: parsed.Competitors,
		ScrapedAt:   now.UTC(),
	}

	if err := s.store.UpsertQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to persist quote: %w", err)
	}

	// Tracked stocks pick up the scraped company name
	if _, err := s.store.GetStock(ctx, symbol); err == nil {
		if err := s.store.UpdateStockName(ctx, symbol, parsed.CompanyName); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh company name",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	s.cache.Set(*quote)
	if s.hub != nil {
		s.hub.BroadcastQuote(*quote)
	}

	s.logger.InfoContext(ctx, "quote scraped",
		slog.String("symbol", symbol),
		slog.Float64("close", quote.Close),
	)

	return quote, nil
}

// Track adds a symbol to the tracked set. The company name is resolved by
// scraping the symbol's quote page, which also validates that the symbol
// exists upstream.
func (s *StockService) Track(ctx context.Context, symbol string) (*domain.Stock, error) {
	symbol = domain.NormalizeSymbol(symbol)

	if _, err := s.store.GetStock(ctx, symbol); err == nil {
		return nil, ErrStockExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check stock: %w", err)
	}

	quote, err := s.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	stock := &domain.Stock{
		Symbol:      symbol,
		CompanyName: quote.CompanyName,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateStock(ctx, stock); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrStockExists
		}
		return nil, fmt.Errorf("failed to create stock: %w", err)
	}

	s.logger.InfoContext(ctx, "stock tracked", slog.String("symbol", symbol))

	return stock, nil
}

// Get returns a tracked stock
func (s *StockService) Get(ctx context.Context, symbol string) (*domain.Stock, error) {
	stock, err := s.store.GetStock(ctx, domain.NormalizeSymbol(symbol))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrStockNotFound
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

// List returns all tracked stocks
func (s *StockService) List(ctx context.Context) ([]domain.Stock, error) {
	return s.store.ListStocks(ctx)
}

// Untrack removes a symbol from the tracked set
func (s *StockService) Untrack(ctx context.Context, symbol string) error {
	err := s.store.DeleteStock(ctx, domain.NormalizeSymbol(symbol))
	if errors.Is(err, store.ErrNotFound) {
		return ErrStockNotFound
	}
	return err
}

// LatestPrice returns the most recent stored close for a symbol.
// Used to value wallet holdings without triggering a scrape.
func (s *StockService) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = domain.NormalizeSymbol(symbol)

	if quote, ok := s.cache.Get(symbol, domain.QuoteDateFor(s.now())); ok {
		return quote.Close, nil
	}

	quote, err := s.store.GetLatestQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrQuoteUnavailable
		}
		return 0, fmt.Errorf("failed to read latest quote: %w", err)
	}
	return quote.Close, nil
}

func (s *StockService) metricOrNil() *infrastructure.RequestMetrics {
	if s.metrics == nil {
		return &infrastructure.RequestMetrics{}
	}
	return s.metrics
}

func (s *StockService) count(ctx context.Context, counter metric.Int64Counter, symbol string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}
