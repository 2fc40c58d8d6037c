package models

import "github.com/shopspring/decimal"

// Quote is a market data quote for one symbol.
type Quote struct {
	Symbol string           `json:"symbol"`
	Last   decimal.Decimal  `json:"last"`
	Close  *decimal.Decimal `json:"close,omitempty"`
	TS     *int64           `json:"ts,omitempty"`
}
