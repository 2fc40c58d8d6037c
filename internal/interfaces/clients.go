package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/models"
)

// MarketDataClient is the market data port. Both calls are batched; empty input
// returns an empty map without contacting the service. Symbols or pairs the
// service does not know are simply absent from the result.
type MarketDataClient interface {
	Quotes(ctx context.Context, symbols []string) (map[string]models.Quote, error)
	// FX returns rates keyed by concatenated pair, e.g. "EURUSD" -> 1.1065.
	FX(ctx context.Context, pairs []string) (map[string]decimal.Decimal, error)
}
