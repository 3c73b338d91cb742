package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/scraper"
	"stockwatch/internal/store"
	"stockwatch/pkg/contracts/domain"
)

type mockStockStore struct {
	mock.Mock
}

func (m *mockStockStore) CreateStock(ctx context.Context, stock *domain.Stock) error {
	return m.Called(ctx, stock).Error(0)
}

func (m *mockStockStore) GetStock(ctx context.Context, symbol string) (*domain.Stock, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stock), args.Error(1)
}

func (m *mockStockStore) ListStocks(ctx context.Context) ([]domain.Stock, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Stock), args.Error(1)
}

func (m *mockStockStore) UpdateStockName(ctx context.Context, symbol, companyName string) error {
	return m.Called(ctx, symbol, companyName).Error(0)
}

func (m *mockStockStore) DeleteStock(ctx context.Context, symbol string) error {
	return m.Called(ctx, symbol).Error(0)
}

func (m *mockStockStore) UpsertQuote(ctx context.Context, quote *domain.Quote) error {
	return m.Called(ctx, quote).Error(0)
}

func (m *mockStockStore) GetFreshQuote(ctx context.Context, symbol, quoteDate string, scrapedAfter time.Time) (*domain.Quote, error) {
	args := m.Called(ctx, symbol, quoteDate, scrapedAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *mockStockStore) GetLatestQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

type mockQuoteCache struct {
	mock.Mock
}

func (m *mockQuoteCache) Get(symbol, quoteDate string) (*domain.Quote, bool) {
	args := m.Called(symbol, quoteDate)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.Quote), args.Bool(1)
}

func (m *mockQuoteCache) Set(quote domain.Quote) {
	m.Called(quote)
}

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, symbol string) (*scraper.ParsedQuote, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scraper.ParsedQuote), args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) BroadcastQuote(quote domain.Quote) {
	m.Called(quote)
}

func newStockService(stockStore *mockStockStore, cache *mockQuoteCache, quoteScraper *mockScraper, hub QuoteBroadcaster) *StockService {
	svc := NewStockService(stockStore, cache, quoteScraper, hub, nil, 15*time.Minute, testLogger())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestStockService_GetQuote_CacheHit(t *testing.T) {
	cached := &domain.Quote{Symbol: "AAPL", QuoteDate: "2026-08-24", Close: 232.5}

	cache := &mockQuoteCache{}
	cache.On("Get", "AAPL", "2026-08-24").Return(cached, true)

	svc := newStockService(&mockStockStore{}, cache, &mockScraper{}, nil)

	quote, err := svc.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 232.5, quote.Close)
	cache.AssertExpectations(t)
}

func TestStockService_GetQuote_FreshInStore(t *testing.T) {
	stored := &domain.Quote{Symbol: "AAPL", QuoteDate: "2026-08-24", Close: 231.0}

	cache := &mockQuoteCache{}
	cache.On("Get", "AAPL", "2026-08-24").Return(nil, false)
	cache.On("Set", *stored).Return()

	stockStore := &mockStockStore{}
	stockStore.On("GetFreshQuote", mock.Anything, "AAPL", "2026-08-24", mock.Anything).Return(stored, nil)

	svc := newStockService(stockStore, cache, &mockScraper{}, nil)

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 231.0, quote.Close)
	cache.AssertExpectations(t)
	stockStore.AssertExpectations(t)
}

func TestStockService_GetQuote_ScrapesWhenStale(t *testing.T) {
	cache := &mockQuoteCache{}
	cache.On("Get", "AAPL", "2026-08-24").Return(nil, false)
	cache.On("Set", mock.Anything).Return()

	stockStore := &mockStockStore{}
	stockStore.On("GetFreshQuote", mock.Anything, "AAPL", "2026-08-24", mock.Anything).Return(nil, store.ErrNotFound)
	stockStore.On("UpsertQuote", mock.Anything, mock.MatchedBy(func(q *domain.Quote) bool {
		return q.Symbol == "AAPL" && q.Close == 231.85 && q.QuoteDate == "2026-08-24"
	})).Return(nil)
	stockStore.On("GetStock", mock.Anything, "AAPL").Return(nil, store.ErrNotFound)

	quoteScraper := &mockScraper{}
	quoteScraper.On("Scrape", mock.Anything, "AAPL").Return(&scraper.ParsedQuote{
		CompanyName: "Apple Inc.",
		Open:        230.1,
		High:        233.9,
		Low:         229.4,
		Close:       231.85,
	}, nil)

	hub := &mockBroadcaster{}
	hub.On("BroadcastQuote", mock.Anything).Return()

	svc := newStockService(stockStore, cache, quoteScraper, hub)

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", quote.CompanyName)
	assert.Equal(t, 231.85, quote.Close)

	stockStore.AssertExpectations(t)
	quoteScraper.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestStockService_GetQuote_UnknownSymbol(t *testing.T) {
	cache := &mockQuoteCache{}
	cache.On("Get", "NOPE", "2026-08-24").Return(nil, false)

	stockStore := &mockStockStore{}
	stockStore.On("GetFreshQuote", mock.Anything, "NOPE", "2026-08-24", mock.Anything).Return(nil, store.ErrNotFound)

	quoteScraper := &mockScraper{}
	quoteScraper.On("Scrape", mock.Anything, "NOPE").Return(nil, scraper.ErrSymbolNotFound)

	svc := newStockService(stockStore, cache, quoteScraper, nil)

	_, err := svc.GetQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrStockNotFound)
}

func TestStockService_GetQuote_ScrapeFailure(t *testing.T) {
	cache := &mockQuoteCache{}
	cache.On("Get", "AAPL", "2026-08-24").Return(nil, false)

	stockStore := &mockStockStore{}
	stockStore.On("GetFreshQuote", mock.Anything, "AAPL", "2026-08-24", mock.Anything).Return(nil, store.ErrNotFound)

	quoteScraper := &mockScraper{}
	quoteScraper.On("Scrape", mock.Anything, "AAPL").Return(nil, scraper.ErrUpstreamStatus)

	svc := newStockService(stockStore, cache, quoteScraper, nil)

	_, err := svc.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestStockService_Track(t *testing.T) {
	cached := &domain.Quote{Symbol: "AAPL", QuoteDate: "2026-08-24", CompanyName: "Apple Inc.", Close: 232.5}

	cache := &mockQuoteCache{}
	cache.On("Get", "AAPL", "2026-08-24").Return(cached, true)

	stockStore := &mockStockStore{}
	stockStore.On("GetStock", mock.Anything, "AAPL").Return(nil, store.ErrNotFound)
	stockStore.On("CreateStock", mock.Anything, mock.MatchedBy(func(st *domain.Stock) bool {
		return st.Symbol == "AAPL" && st.CompanyName == "Apple Inc."
	})).Return(nil)

	svc := newStockService(stockStore, cache, &mockScraper{}, nil)

	stock, err := svc.Track(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", stock.Symbol)
	stockStore.AssertExpectations(t)
}

func TestStockService_Track_AlreadyTracked(t *testing.T) {
	stockStore := &mockStockStore{}
	stockStore.On("GetStock", mock.Anything, "AAPL").Return(&domain.Stock{Symbol: "AAPL"}, nil)

	svc := newStockService(stockStore, &mockQuoteCache{}, &mockScraper{}, nil)

	_, err := svc.Track(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrStockExists)
}

func TestStockService_LatestPrice(t *testing.T) {
	cache := &mockQuoteCache{}
	cache.On("Get", "AAPL", "2026-08-24").Return(nil, false)

	stockStore := &mockStockStore{}
	stockStore.On("GetLatestQuote", mock.Anything, "AAPL").Return(&domain.Quote{Close: 231.0}, nil)
	stockStore.On("GetLatestQuote", mock.Anything, "TSLA").Return(nil, store.ErrNotFound)

	svc := newStockService(stockStore, cache, &mockScraper{}, nil)

	price, err := svc.LatestPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 231.0, price)

	cache.On("Get", "TSLA", "2026-08-24").Return(nil, false)
	_, err = svc.LatestPrice(context.Background(), "TSLA")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}
