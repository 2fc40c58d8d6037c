package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationResult is the output of one valuation computation.
type ValuationResult struct {
	Positions []PositionValuation
	NAV       decimal.Decimal
	// FXUsed holds exactly the rates returned by the market data service for the
	// pairs requested. Fallback rates are never added.
	FXUsed map[string]decimal.Decimal
}

// ValuationSnapshot is an immutable, persisted valuation result. The three
// payloads are JSON documents produced by the valuation snapshot codec.
type ValuationSnapshot struct {
	ID            string    `json:"id"`
	PortfolioID   string    `json:"portfolio_id"`
	AsOf          time.Time `json:"as_of"`
	TotalsJSON    string    `json:"totals"`
	PositionsJSON string    `json:"positions"`
	FXUsedJSON    string    `json:"fx_used"`
	CreatedAt     time.Time `json:"created_at"`
}
