package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stockwatch/pkg/contracts/domain"
)

// pricingConcurrency bounds how many symbols are priced at once when
// valuing a wallet.
const pricingConcurrency = 4

// WalletStore is the persistence surface WalletService depends on
type WalletStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	AggregatePositions(ctx context.Context, userID string) ([]domain.Holding, error)
}

// Pricer values a symbol from stored quotes
type Pricer interface {
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}

// WalletService records wallet transactions and aggregates them into
// per-symbol holdings on demand.
type WalletService struct {
	store  WalletStore
	pricer Pricer
	now    func() time.Time
	logger *slog.Logger
}

// NewWalletService creates a wallet service
func NewWalletService(walletStore WalletStore, pricer Pricer, logger *slog.Logger) *WalletService {
	return &WalletService{
		store:  walletStore,
		pricer: pricer,
		now:    time.Now,
		logger: logger.With(slog.String("service", "wallet")),
	}
}

// Record stores a buy, sell or hold transaction for a user
func (s *WalletService) Record(ctx context.Context, userID, symbol string, operation domain.Operation, quantity, unitPrice float64) (*domain.Transaction, error) {
	if !operation.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, operation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOperation)
	}
	if unitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price cannot be negative", ErrInvalidOperation)
	}

	tx := &domain.Transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		Symbol:     domain.NormalizeSymbol(symbol),
		Operation:  operation,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		ExecutedAt: s.now().UTC(),
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction recorded",
		slog.String("user_id", userID),
		slog.String("symbol", tx.Symbol),
		slog.String("operation", string(operation)),
		slog.Float64("quantity", quantity),
	)

	return tx, nil
}

// History returns a user's transactions, newest first
func (s *WalletService) History(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// Holdings aggregates a user's transactions into per-symbol positions and
// values them against the latest stored quotes. Symbols without a stored
// quote are returned unvalued.
func (s *WalletService) Holdings(ctx context.Context, userID string) ([]domain.Holding, error) {
	holdings, err := s.store.AggregatePositions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate holdings: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pricingConcurrency)

	for i := range holdings {
		g.Go(func() error {
			price, err := s.pricer.LatestPrice(gctx, holdings[i].Symbol)
			if err != nil {
				if errors.Is(err, ErrQuoteUnavailable) {
					return nil
				}
				return err
			}
			value := price * holdings[i].Quantity
			holdings[i].LastPrice = &price
			holdings[i].CurrentValue = &value
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to value holdings: %w", err)
	}

	return holdings, nil
}
