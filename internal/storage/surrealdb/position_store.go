package surrealdb

import (
	"context"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// PositionStore implements interfaces.PositionStore using SurrealDB.
type PositionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(db *surrealdb.DB, logger *common.Logger) *PositionStore {
	return &PositionStore{db: db, logger: logger}
}

func positionID(portfolioID, accountID, symbolID string) string {
	return models.PositionKey{PortfolioID: portfolioID, AccountID: accountID, SymbolID: symbolID}.String()
}

func (s *PositionStore) FindPosition(ctx context.Context, portfolioID, symbolID string) (*models.Position, error) {
	sql := "SELECT * FROM position WHERE portfolio_id = $pid AND symbol_id = $sym ORDER BY account_id ASC LIMIT 1"
	results, err := surrealdb.Query[[]positionRecord](ctx, s.db, sql, map[string]any{"pid": portfolioID, "sym": symbolID})
	if err != nil {
		return nil, storeError("find position", err)
	}
	rows := firstResult(results)
	if len(rows) == 0 {
		return nil, nil
	}
	p, err := rows[0].model()
	if err != nil {
		return nil, storeError("decode position", err)
	}
	return &p, nil
}

func (s *PositionStore) GetPosition(ctx context.Context, portfolioID, accountID, symbolID string) (*models.Position, error) {
	rid := surrealmodels.NewRecordID(tablePosition, positionID(portfolioID, accountID, symbolID))
	rec, err := surrealdb.Select[positionRecord](ctx, s.db, rid)
	if err != nil {
		return nil, storeError("get position", err)
	}
	if rec == nil || rec.SymbolID == "" {
		return nil, nil
	}
	p, err := rec.model()
	if err != nil {
		return nil, storeError("decode position", err)
	}
	return &p, nil
}

func (s *PositionStore) UpsertPosition(ctx context.Context, p *models.Position) (*models.Position, error) {
	id := positionID(p.PortfolioID, p.AccountID, p.SymbolID)
	if err := upsertRecord(ctx, s.db, tablePosition, id, newPositionRecord(p)); err != nil {
		return nil, storeError("save position", err)
	}
	out := *p
	return &out, nil
}

func (s *PositionStore) ListPositions(ctx context.Context, portfolioID string) ([]models.Position, error) {
	sql := "SELECT * FROM position WHERE portfolio_id = $pid ORDER BY symbol_id ASC, account_id ASC"
	results, err := surrealdb.Query[[]positionRecord](ctx, s.db, sql, map[string]any{"pid": portfolioID})
	if err != nil {
		return nil, storeError("list positions", err)
	}
	rows := firstResult(results)
	out := make([]models.Position, 0, len(rows))
	for _, r := range rows {
		p, err := r.model()
		if err != nil {
			return nil, storeError("decode position", err)
		}
		out = append(out, p)
	}
	return out, nil
}
