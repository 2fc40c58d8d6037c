// Package position recomputes holdings from the transaction ledger
package position

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Service implements PositionService
type Service struct {
	storage    interfaces.StorageManager
	portfolios interfaces.PortfolioService
	logger     *common.Logger
	now        func() time.Time
	locks      keyedMutex
}

var _ interfaces.PositionService = (*Service)(nil)

// NewService creates a new position service
func NewService(storage interfaces.StorageManager, portfolios interfaces.PortfolioService, logger *common.Logger) *Service {
	return &Service{
		storage:    storage,
		portfolios: portfolios,
		logger:     logger,
		now:        time.Now,
	}
}

// Recompute rebuilds one position from the full ledger of its account and symbol.
// Recomputes of the same key are serialized within the process.
func (s *Service) Recompute(ctx context.Context, portfolioID, accountID, symbolID string) (*models.Position, error) {
	key := models.PositionKey{PortfolioID: portfolioID, AccountID: accountID, SymbolID: symbolID}
	if strings.TrimSpace(symbolID) == "" || accountID == "" || portfolioID == "" {
		return nil, fmt.Errorf("%w: recompute needs portfolio, account and symbol (got %s)", models.ErrInvalidArgument, key)
	}

	unlock := s.locks.lock(key.String())
	defer unlock()

	txs, err := s.storage.TransactionStore().ListTransactions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", portfolioID, err)
	}

	ledger := filterLedger(txs, accountID, symbolID)
	sortLedger(ledger)

	res, err := Replay(ledger)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", key, err)
	}
	for _, tx := range res.Skipped {
		s.logger.Warn().
			Str("portfolio", portfolioID).
			Str("symbol", symbolID).
			Str("transaction", tx.ID).
			Str("type", string(tx.Type)).
			Msg("Non-trade transaction in position ledger ignored")
	}

	currency, err := s.positionCurrency(ctx, key)
	if err != nil {
		return nil, err
	}

	pos := &models.Position{
		PortfolioID: portfolioID,
		AccountID:   accountID,
		SymbolID:    symbolID,
		Quantity:    res.Quantity,
		AvgCost:     res.AvgCost,
		Currency:    currency,
		UpdatedAt:   s.now().UTC(),
	}

	saved, err := s.storage.PositionStore().UpsertPosition(ctx, pos)
	if err != nil {
		return nil, fmt.Errorf("failed to save position %s: %w", key, err)
	}

	s.logger.Debug().
		Str("position", key.String()).
		Str("qty", saved.Quantity.String()).
		Str("avg_cost", saved.AvgCost.String()).
		Int("ledger", len(ledger)).
		Msg("Position recomputed")

	return saved, nil
}

// positionCurrency keeps the currency already stored for the key, then for the
// symbol anywhere in the portfolio, else the default.
func (s *Service) positionCurrency(ctx context.Context, key models.PositionKey) (string, error) {
	store := s.storage.PositionStore()

	existing, err := store.GetPosition(ctx, key.PortfolioID, key.AccountID, key.SymbolID)
	if err != nil {
		return "", fmt.Errorf("failed to load position %s: %w", key, err)
	}
	if existing == nil {
		existing, err = store.FindPosition(ctx, key.PortfolioID, key.SymbolID)
		if err != nil {
			return "", fmt.Errorf("failed to find position %s: %w", key, err)
		}
	}
	if existing != nil && existing.Currency != "" {
		return existing.Currency, nil
	}
	return models.DefaultPositionCurrency, nil
}

// RecomputeFor checks that userID owns the portfolio and account, then recomputes.
func (s *Service) RecomputeFor(ctx context.Context, userID, portfolioID, accountID, symbolID string) (*models.Position, error) {
	if _, err := s.portfolios.GetAccount(ctx, userID, portfolioID, accountID); err != nil {
		return nil, err
	}
	return s.Recompute(ctx, portfolioID, accountID, strings.TrimSpace(symbolID))
}

// List returns the positions of a portfolio owned by userID.
func (s *Service) List(ctx context.Context, userID, portfolioID string) ([]models.Position, error) {
	if _, err := s.portfolios.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	positions, err := s.storage.PositionStore().ListPositions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions for %s: %w", portfolioID, err)
	}
	if positions == nil {
		positions = []models.Position{}
	}
	return positions, nil
}

// Get returns the position of a symbol in a portfolio owned by userID.
func (s *Service) Get(ctx context.Context, userID, portfolioID, symbolID string) (*models.Position, error) {
	if _, err := s.portfolios.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	pos, err := s.storage.PositionStore().FindPosition(ctx, portfolioID, symbolID)
	if err != nil {
		return nil, fmt.Errorf("failed to find position %s/%s: %w", portfolioID, symbolID, err)
	}
	if pos == nil {
		return nil, fmt.Errorf("position %s in portfolio %s: %w", symbolID, portfolioID, models.ErrNotFound)
	}
	return pos, nil
}
