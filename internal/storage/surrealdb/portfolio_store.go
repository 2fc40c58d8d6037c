package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// PortfolioStore implements interfaces.PortfolioStore using SurrealDB.
type PortfolioStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewPortfolioStore creates a new PortfolioStore.
func NewPortfolioStore(db *surrealdb.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{db: db, logger: logger}
}

func (s *PortfolioStore) SavePortfolio(ctx context.Context, p *models.Portfolio) error {
	rec := portfolioRecord{
		PortfolioID:  p.ID,
		OwnerID:      p.OwnerID,
		Name:         p.Name,
		BaseCurrency: p.BaseCurrency,
		CreatedAt:    p.CreatedAt,
	}
	if err := upsertRecord(ctx, s.db, tablePortfolio, p.ID, rec); err != nil {
		return storeError("save portfolio", err)
	}
	s.logger.Debug().Str("portfolio", p.ID).Msg("Portfolio saved")
	return nil
}

func (s *PortfolioStore) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	rec, err := surrealdb.Select[portfolioRecord](ctx, s.db, surrealmodels.NewRecordID(tablePortfolio, id))
	if err != nil {
		return nil, storeError("get portfolio", err)
	}
	if rec == nil || rec.PortfolioID == "" {
		return nil, fmt.Errorf("portfolio '%s': %w", id, models.ErrNotFound)
	}
	p := rec.model()
	return &p, nil
}

func (s *PortfolioStore) ListPortfoliosByOwner(ctx context.Context, ownerID string) ([]models.Portfolio, error) {
	sql := "SELECT * FROM portfolio WHERE owner_id = $owner ORDER BY created_at ASC"
	results, err := surrealdb.Query[[]portfolioRecord](ctx, s.db, sql, map[string]any{"owner": ownerID})
	if err != nil {
		return nil, storeError("list portfolios", err)
	}
	rows := firstResult(results)
	out := make([]models.Portfolio, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *PortfolioStore) SaveAccount(ctx context.Context, a *models.Account) error {
	rec := accountRecord{
		AccountID:   a.ID,
		PortfolioID: a.PortfolioID,
		Name:        a.Name,
		Currency:    a.Currency,
		CreatedAt:   a.CreatedAt,
	}
	if err := upsertRecord(ctx, s.db, tableAccount, a.ID, rec); err != nil {
		return storeError("save account", err)
	}
	s.logger.Debug().Str("account", a.ID).Str("portfolio", a.PortfolioID).Msg("Account saved")
	return nil
}

func (s *PortfolioStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	rec, err := surrealdb.Select[accountRecord](ctx, s.db, surrealmodels.NewRecordID(tableAccount, id))
	if err != nil {
		return nil, storeError("get account", err)
	}
	if rec == nil || rec.AccountID == "" {
		return nil, fmt.Errorf("account '%s': %w", id, models.ErrNotFound)
	}
	a := rec.model()
	return &a, nil
}

func (s *PortfolioStore) ListAccounts(ctx context.Context, portfolioID string) ([]models.Account, error) {
	sql := "SELECT * FROM account WHERE portfolio_id = $pid ORDER BY created_at ASC"
	results, err := surrealdb.Query[[]accountRecord](ctx, s.db, sql, map[string]any{"pid": portfolioID})
	if err != nil {
		return nil, storeError("list accounts", err)
	}
	rows := firstResult(results)
	out := make([]models.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// upsertRecord writes content to table:id, retrying transient failures.
func upsertRecord(ctx context.Context, db *surrealdb.DB, table, id string, content any) error {
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(table, id),
		"record": content,
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if _, err := surrealdb.Query[any](ctx, db, sql, vars); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
