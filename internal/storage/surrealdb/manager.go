package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Table names.
const (
	tablePortfolio      = "portfolio"
	tableAccount        = "account"
	tableTransaction    = "ledger_tx"
	tableIdempotencyKey = "idempotency_key"
	tablePosition       = "position"
	tableSnapshot       = "valuation_snapshot"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	portfolioStore   *PortfolioStore
	transactionStore *TransactionStore
	positionStore    *PositionStore
	valuationStore   *ValuationStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()
	cfg := config.Storage.SurrealDB

	// Connect to SurrealDB
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	// Sign in
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	// Select namespace and database
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := defineSchema(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	m := newManager(db, logger)

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func newManager(db *surrealdb.DB, logger *common.Logger) *Manager {
	return &Manager{
		db:               db,
		logger:           logger,
		portfolioStore:   NewPortfolioStore(db, logger),
		transactionStore: NewTransactionStore(db, logger),
		positionStore:    NewPositionStore(db, logger),
		valuationStore:   NewValuationStore(db, logger),
	}
}

// defineSchema creates the tables (SurrealDB v3 errors on querying non-existent
// tables) and the lookup indexes.
func defineSchema(ctx context.Context, db *surrealdb.DB) error {
	tables := []string{tablePortfolio, tableAccount, tableTransaction, tableIdempotencyKey, tablePosition, tableSnapshot}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	indexes := []string{
		"DEFINE INDEX IF NOT EXISTS idx_portfolio_owner ON TABLE portfolio FIELDS owner_id",
		"DEFINE INDEX IF NOT EXISTS idx_account_portfolio ON TABLE account FIELDS portfolio_id",
		"DEFINE INDEX IF NOT EXISTS idx_ledger_portfolio ON TABLE ledger_tx FIELDS portfolio_id",
		"DEFINE INDEX IF NOT EXISTS idx_position_portfolio ON TABLE position FIELDS portfolio_id, symbol_id",
		"DEFINE INDEX IF NOT EXISTS idx_snapshot_portfolio ON TABLE valuation_snapshot FIELDS portfolio_id, as_of",
	}
	for _, sql := range indexes {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to define index: %w", err)
		}
	}
	return nil
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore {
	return m.portfolioStore
}

func (m *Manager) TransactionStore() interfaces.TransactionStore {
	return m.transactionStore
}

func (m *Manager) PositionStore() interfaces.PositionStore {
	return m.positionStore
}

func (m *Manager) ValuationStore() interfaces.ValuationStore {
	return m.valuationStore
}

func (m *Manager) Backend() string {
	return "surrealdb"
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
