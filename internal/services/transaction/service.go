// Package transaction posts and queries ledger entries
package transaction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Service implements TransactionService
type Service struct {
	storage    interfaces.StorageManager
	portfolios interfaces.PortfolioService
	positions  interfaces.PositionService
	logger     *common.Logger
	now        func() time.Time
}

var _ interfaces.TransactionService = (*Service)(nil)

// NewService creates a new transaction service
func NewService(storage interfaces.StorageManager, portfolios interfaces.PortfolioService, positions interfaces.PositionService, logger *common.Logger) *Service {
	return &Service{
		storage:    storage,
		portfolios: portfolios,
		positions:  positions,
		logger:     logger,
		now:        time.Now,
	}
}

// Post validates and appends a transaction, then recomputes the affected position
// for trades. A recompute failure is logged and does not fail the post.
// A non-blank idempotency key that was already used yields ErrConflict.
func (s *Service) Post(ctx context.Context, userID, portfolioID string, req models.TransactionRequest, idempotencyKey string) (*models.Transaction, error) {
	if _, err := s.portfolios.GetAccount(ctx, userID, portfolioID, req.AccountID); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(idempotencyKey)
	store := s.storage.TransactionStore()
	if key != "" {
		exists, err := store.TransactionExistsByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("idempotency key %q already used: %w", key, models.ErrConflict)
		}
	}

	tx, err := s.fromRequest(portfolioID, req, key)
	if err != nil {
		return nil, err
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := store.SaveTransaction(ctx, tx); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.logger.Info().
		Str("portfolio", portfolioID).
		Str("transaction", tx.ID).
		Str("type", string(tx.Type)).
		Str("symbol", tx.SymbolID).
		Msg("Transaction posted")

	if tx.Type.IsTrade() && tx.SymbolID != "" {
		// The ledger entry is already durable; a failed recompute is repaired by
		// the next post for the key or an explicit recompute.
		if _, err := s.positions.Recompute(ctx, portfolioID, tx.AccountID, tx.SymbolID); err != nil {
			s.logger.Error().Err(err).
				Str("portfolio", portfolioID).
				Str("transaction", tx.ID).
				Str("symbol", tx.SymbolID).
				Msg("Position recompute after post failed")
		}
	}

	return tx, nil
}

func (s *Service) fromRequest(portfolioID string, req models.TransactionRequest, key string) (*models.Transaction, error) {
	tradeDate, err := models.ParseTradeDate(req.TradeDate)
	if err != nil {
		return nil, fmt.Errorf("tradeDate: %w", err)
	}

	tx := &models.Transaction{
		ID:             uuid.New().String(),
		PortfolioID:    portfolioID,
		AccountID:      req.AccountID,
		SymbolID:       strings.TrimSpace(req.SymbolID),
		Type:           models.TransactionType(strings.ToUpper(strings.TrimSpace(string(req.Type)))),
		Quantity:       req.Quantity,
		Price:          req.Price,
		Currency:       models.NormalizeCurrency(req.Currency),
		TradeDate:      tradeDate,
		Fees:           req.Fees,
		Taxes:          req.Taxes,
		FXRate:         req.FXRate,
		Note:           req.Note,
		Source:         req.Source,
		IdempotencyKey: key,
		CreatedAt:      s.now().UTC(),
	}

	if strings.TrimSpace(req.SettleDate) != "" {
		settle, err := models.ParseTradeDate(req.SettleDate)
		if err != nil {
			return nil, fmt.Errorf("settleDate: %w", err)
		}
		tx.SettleDate = &settle
	}

	return tx, nil
}

// Get returns one transaction of a portfolio owned by userID.
func (s *Service) Get(ctx context.Context, userID, portfolioID, transactionID string) (*models.Transaction, error) {
	if _, err := s.portfolios.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	tx, err := s.storage.TransactionStore().GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.PortfolioID != portfolioID {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, models.ErrNotFound)
	}
	return tx, nil
}

// Search pages through a portfolio's transactions, newest trade date first.
// from and to bound the trade date inclusively when set. Page is 1-based.
func (s *Service) Search(ctx context.Context, userID, portfolioID string, from, to *time.Time, page, size int) (*models.TransactionPage, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, fmt.Errorf("%w: from is after to", models.ErrInvalidArgument)
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	if _, err := s.portfolios.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}

	all, err := s.storage.TransactionStore().ListTransactions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", portfolioID, err)
	}

	matched := make([]models.Transaction, 0, len(all))
	for _, tx := range all {
		if from != nil && tx.TradeDate.Before(*from) {
			continue
		}
		if to != nil && tx.TradeDate.After(*to) {
			continue
		}
		matched = append(matched, tx)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].TradeDate.Equal(matched[j].TradeDate) {
			return matched[i].TradeDate.After(matched[j].TradeDate)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	result := &models.TransactionPage{
		Items: []models.Transaction{},
		Total: len(matched),
		Page:  page,
		Size:  size,
	}
	// Compare page indexes rather than offsets so a huge page cannot overflow.
	if len(matched) > 0 && page-1 <= (len(matched)-1)/size {
		start := (page - 1) * size
		end := start + size
		if end > len(matched) {
			end = len(matched)
		}
		result.Items = matched[start:end]
	}
	return result, nil
}
