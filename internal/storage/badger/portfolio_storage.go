package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

type portfolioStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPortfolioStorage creates a new PortfolioStore backed by BadgerHold.
func NewPortfolioStorage(store *Store, logger *common.Logger) *portfolioStorage {
	return &portfolioStorage{store: store, logger: logger}
}

func (s *portfolioStorage) SavePortfolio(_ context.Context, p *models.Portfolio) error {
	if err := s.store.db.Upsert(p.ID, p); err != nil {
		return fmt.Errorf("%w: failed to save portfolio: %v", models.ErrDependencyUnavailable, err)
	}
	s.logger.Debug().Str("portfolio", p.ID).Msg("Portfolio saved")
	return nil
}

func (s *portfolioStorage) GetPortfolio(_ context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := s.store.db.Get(id, &p); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("portfolio '%s': %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get portfolio '%s': %v", models.ErrDependencyUnavailable, id, err)
	}
	return &p, nil
}

func (s *portfolioStorage) ListPortfoliosByOwner(_ context.Context, ownerID string) ([]models.Portfolio, error) {
	var list []models.Portfolio
	if err := s.store.db.Find(&list, badgerhold.Where("OwnerID").Eq(ownerID)); err != nil {
		return nil, fmt.Errorf("%w: failed to list portfolios: %v", models.ErrDependencyUnavailable, err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *portfolioStorage) SaveAccount(_ context.Context, a *models.Account) error {
	if err := s.store.db.Upsert(a.ID, a); err != nil {
		return fmt.Errorf("%w: failed to save account: %v", models.ErrDependencyUnavailable, err)
	}
	s.logger.Debug().Str("account", a.ID).Str("portfolio", a.PortfolioID).Msg("Account saved")
	return nil
}

func (s *portfolioStorage) GetAccount(_ context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := s.store.db.Get(id, &a); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("account '%s': %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get account '%s': %v", models.ErrDependencyUnavailable, id, err)
	}
	return &a, nil
}

func (s *portfolioStorage) ListAccounts(_ context.Context, portfolioID string) ([]models.Account, error) {
	var list []models.Account
	if err := s.store.db.Find(&list, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("%w: failed to list accounts: %v", models.ErrDependencyUnavailable, err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
