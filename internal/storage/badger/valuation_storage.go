package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

type valuationStorage struct {
	store  *Store
	logger *common.Logger
}

// NewValuationStorage creates a new ValuationStore backed by BadgerHold.
func NewValuationStorage(store *Store, logger *common.Logger) *valuationStorage {
	return &valuationStorage{store: store, logger: logger}
}

func (s *valuationStorage) SaveValuationSnapshot(_ context.Context, snap *models.ValuationSnapshot) (*models.ValuationSnapshot, error) {
	out := *snap
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	if err := s.store.db.Insert(out.ID, &out); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil, fmt.Errorf("snapshot '%s' already exists: %w", out.ID, models.ErrConflict)
		}
		return nil, fmt.Errorf("%w: failed to save snapshot: %v", models.ErrDependencyUnavailable, err)
	}

	s.logger.Debug().Str("snapshot", out.ID).Str("portfolio", out.PortfolioID).Msg("Valuation snapshot saved")
	return &out, nil
}

func (s *valuationStorage) portfolioSnapshots(portfolioID string) ([]models.ValuationSnapshot, error) {
	var list []models.ValuationSnapshot
	if err := s.store.db.Find(&list, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("%w: failed to list snapshots: %v", models.ErrDependencyUnavailable, err)
	}
	sortSnapshots(list)
	return list, nil
}

func (s *valuationStorage) LatestValuationSnapshot(_ context.Context, portfolioID string) (*models.ValuationSnapshot, error) {
	list, err := s.portfolioSnapshots(portfolioID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	latest := list[len(list)-1]
	return &latest, nil
}

func (s *valuationStorage) ValuationSnapshotsInRange(_ context.Context, portfolioID string, from, to time.Time) ([]models.ValuationSnapshot, error) {
	list, err := s.portfolioSnapshots(portfolioID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ValuationSnapshot, 0, len(list))
	for _, snap := range list {
		if snap.AsOf.Before(from) || snap.AsOf.After(to) {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// sortSnapshots orders by AsOf, then CreatedAt.
func sortSnapshots(list []models.ValuationSnapshot) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].AsOf.Equal(list[j].AsOf) {
			return list[i].AsOf.Before(list[j].AsOf)
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
