// Package portfolio manages portfolios and their accounts
package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Service implements PortfolioService
type Service struct {
	storage         interfaces.StorageManager
	defaultCurrency string
	logger          *common.Logger
	now             func() time.Time
}

var _ interfaces.PortfolioService = (*Service)(nil)

// NewService creates a new portfolio service. defaultCurrency is the base
// currency of portfolios created without one.
func NewService(storage interfaces.StorageManager, defaultCurrency string, logger *common.Logger) *Service {
	if defaultCurrency == "" {
		defaultCurrency = models.DefaultPositionCurrency
	}
	return &Service{
		storage:         storage,
		defaultCurrency: models.NormalizeCurrency(defaultCurrency),
		logger:          logger,
		now:             time.Now,
	}
}

// CreatePortfolio creates a portfolio owned by userID.
func (s *Service) CreatePortfolio(ctx context.Context, userID, name, baseCurrency string) (*models.Portfolio, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", models.ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", models.ErrInvalidArgument)
	}
	base := models.NormalizeCurrency(baseCurrency)
	if base == "" {
		base = s.defaultCurrency
	}
	if !common.ValidBaseCurrency(base) {
		return nil, fmt.Errorf("%w: invalid base currency %q", models.ErrInvalidArgument, baseCurrency)
	}

	p := &models.Portfolio{
		ID:           uuid.New().String(),
		OwnerID:      userID,
		Name:         name,
		BaseCurrency: base,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.logger.Info().Str("portfolio", p.ID).Str("owner", userID).Str("base", base).Msg("Portfolio created")
	return p, nil
}

// GetPortfolio returns the portfolio when userID owns it. A portfolio owned by
// someone else is reported as not found.
func (s *Service) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	p, err := s.storage.PortfolioStore().GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		s.logger.Debug().Str("portfolio", portfolioID).Str("user", userID).Msg("Portfolio access denied")
		return nil, fmt.Errorf("portfolio %s: %w", portfolioID, models.ErrNotFound)
	}
	return p, nil
}

// ListPortfolios returns the portfolios owned by userID.
func (s *Service) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	list, err := s.storage.PortfolioStore().ListPortfoliosByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	if list == nil {
		list = []models.Portfolio{}
	}
	return list, nil
}

// CreateAccount adds an account to a portfolio owned by userID. The account
// currency defaults to the portfolio base currency.
func (s *Service) CreateAccount(ctx context.Context, userID, portfolioID, name, currency string) (*models.Account, error) {
	p, err := s.GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", models.ErrInvalidArgument)
	}
	ccy := models.NormalizeCurrency(currency)
	if ccy == "" {
		ccy = p.BaseCurrency
	}
	if !models.ValidCurrency(ccy) {
		return nil, fmt.Errorf("%w: invalid account currency %q", models.ErrInvalidArgument, currency)
	}

	a := &models.Account{
		ID:          uuid.New().String(),
		PortfolioID: portfolioID,
		Name:        name,
		Currency:    ccy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.storage.PortfolioStore().SaveAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.logger.Info().Str("portfolio", portfolioID).Str("account", a.ID).Msg("Account created")
	return a, nil
}

// GetAccount returns an account that belongs to a portfolio owned by userID.
func (s *Service) GetAccount(ctx context.Context, userID, portfolioID, accountID string) (*models.Account, error) {
	if _, err := s.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: account is required", models.ErrInvalidArgument)
	}
	a, err := s.storage.PortfolioStore().GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.PortfolioID != portfolioID {
		return nil, fmt.Errorf("account %s in portfolio %s: %w", accountID, portfolioID, models.ErrNotFound)
	}
	return a, nil
}

// ListAccounts returns the accounts of a portfolio owned by userID.
func (s *Service) ListAccounts(ctx context.Context, userID, portfolioID string) ([]models.Account, error) {
	if _, err := s.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	list, err := s.storage.PortfolioStore().ListAccounts(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if list == nil {
		list = []models.Account{}
	}
	return list, nil
}
