package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Service implements ValuationService
type Service struct {
	storage    interfaces.StorageManager
	portfolios interfaces.PortfolioService
	engine     *Engine
	logger     *common.Logger
	now        func() time.Time
}

var _ interfaces.ValuationService = (*Service)(nil)

// NewService creates a new valuation service
func NewService(storage interfaces.StorageManager, portfolios interfaces.PortfolioService, engine *Engine, logger *common.Logger) *Service {
	return &Service{
		storage:    storage,
		portfolios: portfolios,
		engine:     engine,
		logger:     logger,
		now:        time.Now,
	}
}

// RunValuation values the current positions of a portfolio in its base currency
// and stores the result as a new snapshot. A zero asOf means now. Nothing is
// stored when any step fails.
func (s *Service) RunValuation(ctx context.Context, userID, portfolioID string, asOf time.Time) (*models.ValuationSnapshot, error) {
	p, err := s.portfolios.GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}

	positions, err := s.storage.PositionStore().ListPositions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions for %s: %w", portfolioID, err)
	}

	inputs := make([]models.PositionInput, 0, len(positions))
	for _, pos := range positions {
		inputs = append(inputs, models.PositionInputFrom(pos))
	}

	res, err := s.engine.Compute(ctx, inputs, p.BaseCurrency)
	if err != nil {
		return nil, fmt.Errorf("valuation of %s failed: %w", portfolioID, err)
	}

	totals, positionsJSON, fxJSON, err := EncodeSnapshot(res)
	if err != nil {
		return nil, err
	}

	saved, err := s.storage.ValuationStore().SaveValuationSnapshot(ctx, &models.ValuationSnapshot{
		PortfolioID:   portfolioID,
		AsOf:          asOf.UTC(),
		TotalsJSON:    totals,
		PositionsJSON: positionsJSON,
		FXUsedJSON:    fxJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save valuation snapshot for %s: %w", portfolioID, err)
	}

	priceFallbacks, fxFallbacks := 0, 0
	for _, pv := range res.Positions {
		if pv.PriceFallback {
			priceFallbacks++
		}
		if pv.FXFallback {
			fxFallbacks++
		}
	}

	s.logger.Info().
		Str("portfolio", portfolioID).
		Str("snapshot", saved.ID).
		Str("base", p.BaseCurrency).
		Str("nav", res.NAV.StringFixed(valueScale)).
		Int("positions", len(res.Positions)).
		Int("price_fallbacks", priceFallbacks).
		Int("fx_fallbacks", fxFallbacks).
		Msg("Valuation snapshot saved")

	return saved, nil
}

// Latest returns the most recent snapshot of a portfolio.
func (s *Service) Latest(ctx context.Context, userID, portfolioID string) (*models.ValuationSnapshot, error) {
	if _, err := s.portfolios.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	snap, err := s.storage.ValuationStore().LatestValuationSnapshot(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot for %s: %w", portfolioID, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("no valuation snapshot for portfolio %s: %w", portfolioID, models.ErrNotFound)
	}
	return snap, nil
}

// History returns the snapshots with from <= AsOf <= to, oldest first.
func (s *Service) History(ctx context.Context, userID, portfolioID string, from, to time.Time) ([]models.ValuationSnapshot, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s is after to %s", models.ErrInvalidArgument,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	if _, err := s.portfolios.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	snaps, err := s.storage.ValuationStore().ValuationSnapshotsInRange(ctx, portfolioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots for %s: %w", portfolioID, err)
	}
	if snaps == nil {
		snaps = []models.ValuationSnapshot{}
	}
	return snaps, nil
}

// RenderNAVChart renders NAV and cost basis over the history range as a PNG.
func (s *Service) RenderNAVChart(ctx context.Context, userID, portfolioID string, from, to time.Time) ([]byte, error) {
	snaps, err := s.History(ctx, userID, portfolioID, from, to)
	if err != nil {
		return nil, err
	}

	points := make([]NAVPoint, 0, len(snaps))
	for _, snap := range snaps {
		pt, err := navPointFromSnapshot(snap)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
		}
		points = append(points, pt)
	}

	return RenderNAVChart(points)
}
