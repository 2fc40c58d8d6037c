package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the current holding of one symbol in one account of a portfolio.
// Quantity and AvgCost are never negative; AvgCost is the weighted-average cost
// per unit including fees and taxes of the buys.
type Position struct {
	PortfolioID string          `json:"portfolio_id"`
	AccountID   string          `json:"account_id"`
	SymbolID    string          `json:"symbol_id"`
	Quantity    decimal.Decimal `json:"qty"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	Currency    string          `json:"currency"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Key returns the unique (portfolio, account, symbol) key of the position.
func (p *Position) Key() PositionKey {
	return PositionKey{PortfolioID: p.PortfolioID, AccountID: p.AccountID, SymbolID: p.SymbolID}
}

// PositionKey identifies a position row.
type PositionKey struct {
	PortfolioID string
	AccountID   string
	SymbolID    string
}

// String renders the key as portfolio/account/symbol.
func (k PositionKey) String() string {
	return k.PortfolioID + "/" + k.AccountID + "/" + k.SymbolID
}

// PositionInput is the valuation-scoped view of a stored position.
type PositionInput struct {
	SymbolID string          `json:"symbolId"`
	Quantity decimal.Decimal `json:"qty"`
	AvgCost  decimal.Decimal `json:"avgCost"`
	Currency string          `json:"currency"`
}

// PositionInputFrom converts a stored position into a valuation input.
func PositionInputFrom(p Position) PositionInput {
	return PositionInput{
		SymbolID: p.SymbolID,
		Quantity: p.Quantity,
		AvgCost:  p.AvgCost,
		Currency: p.Currency,
	}
}

// PositionValuation is a PositionInput priced in the base currency.
type PositionValuation struct {
	SymbolID        string          `json:"symbolId"`
	Quantity        decimal.Decimal `json:"qty"`
	AvgCost         decimal.Decimal `json:"avgCost"`
	LastPrice       decimal.Decimal `json:"lastPrice"`
	Currency        string          `json:"currency"`
	FXToBase        decimal.Decimal `json:"fxToBase"`
	MarketValueBase decimal.Decimal `json:"mtmBase"`
	CostValueBase   decimal.Decimal `json:"costBase"`
	UnrealizedPnL   decimal.Decimal `json:"unrealizedPnL"`

	// PriceFallback is set when no quote was available and AvgCost priced the position.
	PriceFallback bool `json:"-"`
	// FXFallback is set when no FX rate was available and 1 was used.
	FXFallback bool `json:"-"`
}
