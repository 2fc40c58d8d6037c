// Package interfaces defines service contracts for folio
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// StorageManager coordinates the stores of one storage backend.
type StorageManager interface {
	PortfolioStore() PortfolioStore
	TransactionStore() TransactionStore
	PositionStore() PositionStore
	ValuationStore() ValuationStore

	// Backend names the active backend ("badger" or "surrealdb").
	Backend() string

	Close() error
}

// PortfolioStore persists portfolios and their accounts.
type PortfolioStore interface {
	SavePortfolio(ctx context.Context, p *models.Portfolio) error
	// GetPortfolio returns an error wrapping models.ErrNotFound when absent.
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	ListPortfoliosByOwner(ctx context.Context, ownerID string) ([]models.Portfolio, error)

	SaveAccount(ctx context.Context, a *models.Account) error
	// GetAccount returns an error wrapping models.ErrNotFound when absent.
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, portfolioID string) ([]models.Account, error)
}

// TransactionStore is the append-only ledger.
type TransactionStore interface {
	// SaveTransaction inserts a new transaction. A non-empty idempotency key that is
	// already stored yields an error wrapping models.ErrConflict.
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	// GetTransaction returns an error wrapping models.ErrNotFound when absent.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	// ListTransactions returns every transaction of a portfolio in insertion order.
	ListTransactions(ctx context.Context, portfolioID string) ([]models.Transaction, error)
	TransactionExistsByIdempotencyKey(ctx context.Context, key string) (bool, error)
}

// PositionStore holds one row per (portfolio, account, symbol).
type PositionStore interface {
	// FindPosition returns the first position of the symbol in the portfolio across
	// accounts (ordered by account id), or nil when there is none.
	FindPosition(ctx context.Context, portfolioID, symbolID string) (*models.Position, error)
	// GetPosition returns the position for the full key, or nil when there is none.
	GetPosition(ctx context.Context, portfolioID, accountID, symbolID string) (*models.Position, error)
	// UpsertPosition inserts or replaces the row for the position's key.
	UpsertPosition(ctx context.Context, p *models.Position) (*models.Position, error)
	ListPositions(ctx context.Context, portfolioID string) ([]models.Position, error)
}

// ValuationStore persists immutable valuation snapshots.
type ValuationStore interface {
	// SaveValuationSnapshot assigns ID and CreatedAt when empty and stores the snapshot.
	SaveValuationSnapshot(ctx context.Context, s *models.ValuationSnapshot) (*models.ValuationSnapshot, error)
	// LatestValuationSnapshot returns the snapshot with the greatest AsOf, or nil.
	LatestValuationSnapshot(ctx context.Context, portfolioID string) (*models.ValuationSnapshot, error)
	// ValuationSnapshotsInRange returns snapshots with from <= AsOf <= to, ascending by AsOf.
	ValuationSnapshotsInRange(ctx context.Context, portfolioID string, from, to time.Time) ([]models.ValuationSnapshot, error)
}
