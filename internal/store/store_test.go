package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/pkg/contracts/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, username string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func TestStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "alice")

	t.Run("get by username", func(t *testing.T) {
		got, err := s.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := s.CreateUser(ctx, &domain.User{
			ID:           uuid.NewString(),
			Username:     "alice",
			PasswordHash: "hash",
			CreatedAt:    time.Now().UTC(),
		})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Stocks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stock := &domain.Stock{
		Symbol:      "AAPL",
		CompanyName: "Apple Inc.",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.CreateStock(ctx, stock))

	t.Run("duplicate symbol", func(t *testing.T) {
		assert.ErrorIs(t, s.CreateStock(ctx, stock), ErrDuplicate)
	})

	t.Run("get", func(t *testing.T) {
		got, err := s.GetStock(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "Apple Inc.", got.CompanyName)
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, s.CreateStock(ctx, &domain.Stock{
			Symbol: "MSFT", CompanyName: "Microsoft Corp.", CreatedAt: time.Now().UTC(),
		}))
		stocks, err := s.ListStocks(ctx)
		require.NoError(t, err)
		require.Len(t, stocks, 2)
		assert.Equal(t, "AAPL", stocks[0].Symbol)
		assert.Equal(t, "MSFT", stocks[1].Symbol)
	})

	t.Run("update name", func(t *testing.T) {
		require.NoError(t, s.UpdateStockName(ctx, "AAPL", "Apple Inc"))
		got, err := s.GetStock(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "Apple Inc", got.CompanyName)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteStock(ctx, "MSFT"))
		assert.ErrorIs(t, s.DeleteStock(ctx, "MSFT"), ErrNotFound)
	})
}

func TestStore_Quotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	quote := &domain.Quote{
		Symbol:      "AAPL",
		QuoteDate:   "2026-08-24",
		CompanyName: "Apple Inc.",
		Open:        230.1,
		High:        233.9,
		Low:         229.4,
		Close:       232.5,
		Performance: domain.Performance{
			FiveDays:    1.2,
			OneMonth:    3.4,
			ThreeMonths: -0.5,
			YearToDate:  12.0,
			OneYear:     25.3,
		},
		Competitors: []domain.Competitor{
			{Name: "Microsoft Corp.", MarketCap: domain.MarketCap{Currency: "$", Value: 3.1e12}},
		},
		ScrapedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertQuote(ctx, quote))

	t.Run("get", func(t *testing.T) {
		got, err := s.GetQuote(ctx, "AAPL", "2026-08-24")
		require.NoError(t, err)
		assert.Equal(t, 232.5, got.Close)
		assert.Equal(t, 3.4, got.Performance.OneMonth)
		require.Len(t, got.Competitors, 1)
		assert.Equal(t, "Microsoft Corp.", got.Competitors[0].Name)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		quote.Close = 234.0
		require.NoError(t, s.UpsertQuote(ctx, quote))
		got, err := s.GetQuote(ctx, "AAPL", "2026-08-24")
		require.NoError(t, err)
		assert.Equal(t, 234.0, got.Close)
	})

	t.Run("freshness window", func(t *testing.T) {
		got, err := s.GetFreshQuote(ctx, "AAPL", "2026-08-24", time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "AAPL", got.Symbol)

		_, err = s.GetFreshQuote(ctx, "AAPL", "2026-08-24", time.Now().Add(time.Minute))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("latest", func(t *testing.T) {
		older := *quote
		older.QuoteDate = "2026-08-21"
		older.Close = 228.0
		require.NoError(t, s.UpsertQuote(ctx, &older))

		got, err := s.GetLatestQuote(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "2026-08-24", got.QuoteDate)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.GetQuote(ctx, "TSLA", "2026-08-24")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_AggregatePositions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	require.NoError(t, s.CreateStock(ctx, &domain.Stock{
		Symbol: "AAPL", CompanyName: "Apple Inc.", CreatedAt: time.Now().UTC(),
	}))

	record := func(userID, symbol string, op domain.Operation, qty, price float64) {
		t.Helper()
		require.NoError(t, s.CreateTransaction(ctx, &domain.Transaction{
			ID:         uuid.NewString(),
			UserID:     userID,
			Symbol:     symbol,
			Operation:  op,
			Quantity:   qty,
			UnitPrice:  price,
			ExecutedAt: time.Now().UTC(),
		}))
	}

	record(alice.ID, "AAPL", domain.OperationBuy, 10, 200)
	record(alice.ID, "AAPL", domain.OperationBuy, 10, 220)
	record(alice.ID, "AAPL", domain.OperationSell, 5, 230)
	record(alice.ID, "AAPL", domain.OperationHold, 1, 0)
	record(alice.ID, "TSLA", domain.OperationSell, 3, 400)
	record(bob.ID, "AAPL", domain.OperationBuy, 100, 150)

	holdings, err := s.AggregatePositions(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	aapl := holdings[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, "Apple Inc.", aapl.CompanyName)
	assert.Equal(t, 15.0, aapl.Quantity)
	assert.Equal(t, 4200.0, aapl.TotalSpent)
	assert.Equal(t, 210.0, aapl.AvgBuyPrice)

	// Oversold position clamps at zero instead of going negative
	tsla := holdings[1]
	assert.Equal(t, "TSLA", tsla.Symbol)
	assert.Equal(t, 0.0, tsla.Quantity)

	t.Run("tenant scoping", func(t *testing.T) {
		got, err := s.AggregatePositions(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 100.0, got[0].Quantity)
	})

	t.Run("list transactions", func(t *testing.T) {
		txs, err := s.ListTransactions(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, txs, 5)
	})
}
