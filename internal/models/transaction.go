package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxBuy          TransactionType = "BUY"
	TxSell         TransactionType = "SELL"
	TxCashIn       TransactionType = "CASH_IN"
	TxCashOut      TransactionType = "CASH_OUT"
	TxDividend     TransactionType = "DIVIDEND"
	TxCoupon       TransactionType = "COUPON"
	TxFee          TransactionType = "FEE"
	TxTax          TransactionType = "TAX"
	TxSplit        TransactionType = "SPLIT"
	TxMerger       TransactionType = "MERGER"
	TxFXConversion TransactionType = "FX_CONVERSION"
)

var validTransactionTypes = map[TransactionType]bool{
	TxBuy:          true,
	TxSell:         true,
	TxCashIn:       true,
	TxCashOut:      true,
	TxDividend:     true,
	TxCoupon:       true,
	TxFee:          true,
	TxTax:          true,
	TxSplit:        true,
	TxMerger:       true,
	TxFXConversion: true,
}

// ValidTransactionType returns true if t is one of the known transaction types.
func ValidTransactionType(t TransactionType) bool {
	return validTransactionTypes[t]
}

// IsTrade returns true for the types that move a position (BUY and SELL).
func (t TransactionType) IsTrade() bool {
	return t == TxBuy || t == TxSell
}

// Transaction is an immutable, append-only ledger entry.
type Transaction struct {
	ID             string           `json:"id"`
	PortfolioID    string           `json:"portfolio_id"`
	AccountID      string           `json:"account_id"`
	SymbolID       string           `json:"symbol_id,omitempty"`
	Type           TransactionType  `json:"type"`
	Quantity       *decimal.Decimal `json:"qty,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Currency       string           `json:"currency"`
	TradeDate      time.Time        `json:"trade_date"`
	SettleDate     *time.Time       `json:"settle_date,omitempty"`
	Fees           decimal.Decimal  `json:"fees"`
	Taxes          decimal.Decimal  `json:"taxes"`
	FXRate         *decimal.Decimal `json:"fx_rate,omitempty"`
	Note           string           `json:"note,omitempty"`
	Source         string           `json:"source,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// QuantityOrZero returns the quantity, or zero when absent.
func (tx *Transaction) QuantityOrZero() decimal.Decimal {
	if tx.Quantity == nil {
		return decimal.Zero
	}
	return *tx.Quantity
}

// PriceOrZero returns the price, or zero when absent.
func (tx *Transaction) PriceOrZero() decimal.Decimal {
	if tx.Price == nil {
		return decimal.Zero
	}
	return *tx.Price
}

// Validate checks the ledger invariants. Violations wrap ErrInvalidTransaction.
func (tx *Transaction) Validate() error {
	if !ValidTransactionType(tx.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, tx.Type)
	}
	if !ValidCurrency(tx.Currency) {
		return fmt.Errorf("%w: invalid currency %q", ErrInvalidTransaction, tx.Currency)
	}
	if tx.TradeDate.IsZero() {
		return fmt.Errorf("%w: trade date is required", ErrInvalidTransaction)
	}
	if tx.Fees.IsNegative() {
		return fmt.Errorf("%w: fees must be >= 0", ErrInvalidTransaction)
	}
	if tx.Taxes.IsNegative() {
		return fmt.Errorf("%w: taxes must be >= 0", ErrInvalidTransaction)
	}
	if tx.Type.IsTrade() {
		if strings.TrimSpace(tx.SymbolID) == "" {
			return fmt.Errorf("%w: symbol is required for %s", ErrInvalidTransaction, tx.Type)
		}
		if tx.Quantity == nil || !tx.Quantity.IsPositive() {
			return fmt.Errorf("%w: quantity must be > 0 for %s", ErrInvalidTransaction, tx.Type)
		}
		if tx.Price != nil && tx.Price.IsNegative() {
			return fmt.Errorf("%w: price must be >= 0", ErrInvalidTransaction)
		}
	}
	return nil
}

// TransactionRequest is the client-submitted payload for posting a transaction.
type TransactionRequest struct {
	AccountID  string           `json:"accountId"`
	SymbolID   string           `json:"symbolId,omitempty"`
	Type       TransactionType  `json:"type"`
	Quantity   *decimal.Decimal `json:"qty,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Fees       decimal.Decimal  `json:"fees"`
	Taxes      decimal.Decimal  `json:"taxes"`
	Currency   string           `json:"currency"`
	TradeDate  string           `json:"tradeDate"`
	SettleDate string           `json:"settleDate,omitempty"`
	FXRate     *decimal.Decimal `json:"fxRate,omitempty"`
	Note       string           `json:"note,omitempty"`
	Source     string           `json:"source,omitempty"`
}

// ParseTradeDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// The result is truncated to midnight UTC.
func ParseTradeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrInvalidTransaction)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidTransaction, s)
		}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// TransactionPage is one page of a transaction search, newest trade date first.
type TransactionPage struct {
	Items []Transaction `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}
