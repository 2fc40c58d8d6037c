// Package valuation prices positions into base-currency snapshots
package valuation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// valueScale is the number of fractional digits kept on derived amounts.
const valueScale = 8

// Fallback branch names, logged with every degraded lookup.
const (
	BranchPriceFromAvgCost = "price_from_avg_cost"
	BranchFXRateOne        = "fx_rate_one"
)

// Engine turns positions into a base-currency valuation. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	market interfaces.MarketDataClient
	logger *common.Logger
	strict bool
	now    func() time.Time
}

// EngineOption configures the engine
type EngineOption func(*Engine)

// WithStrictMarketData makes a failing market data call fail the computation.
// By default the failure is logged and every position takes its fallback branch.
func WithStrictMarketData(strict bool) EngineOption {
	return func(e *Engine) {
		e.strict = strict
	}
}

// NewEngine creates a valuation engine over a market data client
func NewEngine(market interfaces.MarketDataClient, logger *common.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		market: market,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute values positions in baseCurrency. Quotes and FX rates are each fetched
// with one batched call. A missing quote prices the position at its AvgCost and a
// missing rate converts at 1; both are logged and flagged on the output. FXUsed
// is exactly what the market data service returned.
func (e *Engine) Compute(ctx context.Context, positions []models.PositionInput, baseCurrency string) (*models.ValuationResult, error) {
	if len(positions) == 0 {
		return &models.ValuationResult{
			Positions: []models.PositionValuation{},
			NAV:       decimal.Zero,
			FXUsed:    map[string]decimal.Decimal{},
		}, nil
	}

	base := models.NormalizeCurrency(baseCurrency)
	symbols, pairs := marketKeys(positions, base)

	quotes, err := e.market.Quotes(ctx, symbols)
	if err != nil {
		if e.strict {
			return nil, fmt.Errorf("%w: quotes: %w", models.ErrDependencyUnavailable, err)
		}
		e.logger.Warn().Err(err).Int("symbols", len(symbols)).Msg("Quote fetch failed, pricing all positions at average cost")
		quotes = nil
	}

	fx := map[string]decimal.Decimal{}
	if len(pairs) > 0 {
		rates, err := e.market.FX(ctx, pairs)
		if err != nil {
			if e.strict {
				return nil, fmt.Errorf("%w: fx: %w", models.ErrDependencyUnavailable, err)
			}
			e.logger.Warn().Err(err).Strs("pairs", pairs).Msg("FX fetch failed, converting all positions at 1")
		} else if rates != nil {
			fx = rates
		}
	}

	now := e.now()
	out := make([]models.PositionValuation, 0, len(positions))
	nav := decimal.Zero

	for _, p := range positions {
		pv := models.PositionValuation{
			SymbolID: p.SymbolID,
			Quantity: p.Quantity,
			AvgCost:  p.AvgCost,
			Currency: models.NormalizeCurrency(p.Currency),
		}

		if q, ok := quotes[p.SymbolID]; ok {
			pv.LastPrice = q.Last
			if q.TS != nil && !common.IsFresh(time.Unix(*q.TS, 0), now, common.QuoteStaleAfter) {
				e.logger.Debug().Str("symbol", p.SymbolID).Int64("ts", *q.TS).Msg("Stale quote used")
			}
		} else {
			pv.LastPrice = p.AvgCost
			pv.PriceFallback = true
			e.logger.Warn().
				Str("symbol", p.SymbolID).
				Str("branch", BranchPriceFromAvgCost).
				Str("avg_cost", p.AvgCost.String()).
				Msg("No quote for symbol, using average cost")
		}

		if strings.EqualFold(strings.TrimSpace(p.Currency), base) {
			pv.FXToBase = decimal.NewFromInt(1)
		} else {
			pair := models.FXPair(p.Currency, base)
			if rate, ok := fx[pair]; ok {
				pv.FXToBase = rate
			} else {
				pv.FXToBase = decimal.NewFromInt(1)
				pv.FXFallback = true
				e.logger.Warn().
					Str("symbol", p.SymbolID).
					Str("pair", pair).
					Str("branch", BranchFXRateOne).
					Msg("No FX rate for pair, using 1")
			}
		}

		pv.MarketValueBase = p.Quantity.Mul(pv.LastPrice).Mul(pv.FXToBase).Round(valueScale)
		pv.CostValueBase = p.Quantity.Mul(p.AvgCost).Mul(pv.FXToBase).Round(valueScale)
		pv.UnrealizedPnL = pv.MarketValueBase.Sub(pv.CostValueBase).Round(valueScale)
		nav = nav.Add(pv.MarketValueBase)

		out = append(out, pv)
	}

	return &models.ValuationResult{
		Positions: out,
		NAV:       nav.Round(valueScale),
		FXUsed:    fx,
	}, nil
}

// marketKeys returns the distinct symbols and FX pairs needed, in first-seen order.
func marketKeys(positions []models.PositionInput, base string) (symbols, pairs []string) {
	seenSymbol := make(map[string]bool)
	seenPair := make(map[string]bool)
	for _, p := range positions {
		if !seenSymbol[p.SymbolID] {
			seenSymbol[p.SymbolID] = true
			symbols = append(symbols, p.SymbolID)
		}
		if strings.EqualFold(strings.TrimSpace(p.Currency), base) {
			continue
		}
		pair := models.FXPair(p.Currency, base)
		if !seenPair[pair] {
			seenPair[pair] = true
			pairs = append(pairs, pair)
		}
	}
	return symbols, pairs
}
