package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

type positionStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPositionStorage creates a new PositionStore backed by BadgerHold.
func NewPositionStorage(store *Store, logger *common.Logger) *positionStorage {
	return &positionStorage{store: store, logger: logger}
}

func positionKey(portfolioID, accountID, symbolID string) string {
	return compositeKey(portfolioID, accountID, symbolID)
}

func (s *positionStorage) FindPosition(_ context.Context, portfolioID, symbolID string) (*models.Position, error) {
	var list []models.Position
	query := badgerhold.Where("PortfolioID").Eq(portfolioID).And("SymbolID").Eq(symbolID)
	if err := s.store.db.Find(&list, query); err != nil {
		return nil, fmt.Errorf("%w: failed to find position: %v", models.ErrDependencyUnavailable, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AccountID < list[j].AccountID })
	return &list[0], nil
}

func (s *positionStorage) GetPosition(_ context.Context, portfolioID, accountID, symbolID string) (*models.Position, error) {
	var p models.Position
	if err := s.store.db.Get(positionKey(portfolioID, accountID, symbolID), &p); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to get position: %v", models.ErrDependencyUnavailable, err)
	}
	return &p, nil
}

func (s *positionStorage) UpsertPosition(_ context.Context, p *models.Position) (*models.Position, error) {
	if err := s.store.db.Upsert(positionKey(p.PortfolioID, p.AccountID, p.SymbolID), p); err != nil {
		return nil, fmt.Errorf("%w: failed to save position: %v", models.ErrDependencyUnavailable, err)
	}
	out := *p
	return &out, nil
}

func (s *positionStorage) ListPositions(_ context.Context, portfolioID string) ([]models.Position, error) {
	var list []models.Position
	if err := s.store.db.Find(&list, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("%w: failed to list positions: %v", models.ErrDependencyUnavailable, err)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SymbolID != list[j].SymbolID {
			return list[i].SymbolID < list[j].SymbolID
		}
		return list[i].AccountID < list[j].AccountID
	})
	return list, nil
}
