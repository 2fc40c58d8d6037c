package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// PortfolioService owns portfolios and accounts and performs ownership checks.
type PortfolioService interface {
	CreatePortfolio(ctx context.Context, userID, name, baseCurrency string) (*models.Portfolio, error)
	// GetPortfolio returns ErrNotFound when the portfolio is missing or not owned by userID.
	GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	CreateAccount(ctx context.Context, userID, portfolioID, name, currency string) (*models.Account, error)
	GetAccount(ctx context.Context, userID, portfolioID, accountID string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID, portfolioID string) ([]models.Account, error)
}

// PositionService recomputes and exposes positions.
type PositionService interface {
	// Recompute replays the ledger of one (portfolio, account, symbol) and upserts the
	// resulting position. Ids are assumed to be authorized by the caller.
	Recompute(ctx context.Context, portfolioID, accountID, symbolID string) (*models.Position, error)
	RecomputeFor(ctx context.Context, userID, portfolioID, accountID, symbolID string) (*models.Position, error)
	List(ctx context.Context, userID, portfolioID string) ([]models.Position, error)
	Get(ctx context.Context, userID, portfolioID, symbolID string) (*models.Position, error)
}

// TransactionService posts and queries ledger entries.
type TransactionService interface {
	Post(ctx context.Context, userID, portfolioID string, req models.TransactionRequest, idempotencyKey string) (*models.Transaction, error)
	Get(ctx context.Context, userID, portfolioID, transactionID string) (*models.Transaction, error)
	Search(ctx context.Context, userID, portfolioID string, from, to *time.Time, page, size int) (*models.TransactionPage, error)
}

// ValuationService runs and retrieves valuation snapshots.
type ValuationService interface {
	RunValuation(ctx context.Context, userID, portfolioID string, asOf time.Time) (*models.ValuationSnapshot, error)
	// Latest returns ErrNotFound when the portfolio has no snapshot yet.
	Latest(ctx context.Context, userID, portfolioID string) (*models.ValuationSnapshot, error)
	History(ctx context.Context, userID, portfolioID string, from, to time.Time) ([]models.ValuationSnapshot, error)
	RenderNAVChart(ctx context.Context, userID, portfolioID string, from, to time.Time) ([]byte, error)
}
