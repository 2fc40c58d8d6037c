package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// ValuationStore implements interfaces.ValuationStore using SurrealDB.
type ValuationStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewValuationStore creates a new ValuationStore.
func NewValuationStore(db *surrealdb.DB, logger *common.Logger) *ValuationStore {
	return &ValuationStore{db: db, logger: logger}
}

func (s *ValuationStore) SaveValuationSnapshot(ctx context.Context, snap *models.ValuationSnapshot) (*models.ValuationSnapshot, error) {
	out := *snap
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	sql := "CREATE $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(tableSnapshot, out.ID),
		"record": newSnapshotRecord(&out),
	}
	results, err := surrealdb.Query[any](ctx, s.db, sql, vars)
	if err == nil {
		err = statementError(results)
	}
	if err != nil {
		if isAlreadyExistsError(err) {
			return nil, fmt.Errorf("snapshot '%s' already exists: %w", out.ID, models.ErrConflict)
		}
		return nil, storeError("save snapshot", err)
	}

	s.logger.Debug().Str("snapshot", out.ID).Str("portfolio", out.PortfolioID).Msg("Valuation snapshot saved")
	return &out, nil
}

func (s *ValuationStore) LatestValuationSnapshot(ctx context.Context, portfolioID string) (*models.ValuationSnapshot, error) {
	sql := "SELECT * FROM valuation_snapshot WHERE portfolio_id = $pid ORDER BY as_of DESC, created_at DESC LIMIT 1"
	results, err := surrealdb.Query[[]snapshotRecord](ctx, s.db, sql, map[string]any{"pid": portfolioID})
	if err != nil {
		return nil, storeError("latest snapshot", err)
	}
	rows := firstResult(results)
	if len(rows) == 0 {
		return nil, nil
	}
	snap := rows[0].model()
	return &snap, nil
}

func (s *ValuationStore) ValuationSnapshotsInRange(ctx context.Context, portfolioID string, from, to time.Time) ([]models.ValuationSnapshot, error) {
	sql := `SELECT * FROM valuation_snapshot
		WHERE portfolio_id = $pid AND as_of >= $from AND as_of <= $to
		ORDER BY as_of ASC, created_at ASC`
	vars := map[string]any{"pid": portfolioID, "from": from.UTC(), "to": to.UTC()}
	results, err := surrealdb.Query[[]snapshotRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, storeError("snapshots in range", err)
	}
	rows := firstResult(results)
	out := make([]models.ValuationSnapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
