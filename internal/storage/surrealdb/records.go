package surrealdb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/folio/internal/models"
)

// Records never carry a json "id" field: SurrealDB returns the record id there.
// Decimals are stored as strings to keep every digit.

type portfolioRecord struct {
	PortfolioID  string    `json:"portfolio_id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	BaseCurrency string    `json:"base_currency"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r portfolioRecord) model() models.Portfolio {
	return models.Portfolio{
		ID:           r.PortfolioID,
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		BaseCurrency: r.BaseCurrency,
		CreatedAt:    r.CreatedAt,
	}
}

type accountRecord struct {
	AccountID   string    `json:"account_id"`
	PortfolioID string    `json:"portfolio_id"`
	Name        string    `json:"name"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r accountRecord) model() models.Account {
	return models.Account{
		ID:          r.AccountID,
		PortfolioID: r.PortfolioID,
		Name:        r.Name,
		Currency:    r.Currency,
		CreatedAt:   r.CreatedAt,
	}
}

type transactionRecord struct {
	TransactionID  string     `json:"transaction_id"`
	Seq            int64      `json:"seq"`
	PortfolioID    string     `json:"portfolio_id"`
	AccountID      string     `json:"account_id"`
	SymbolID       string     `json:"symbol_id"`
	Type           string     `json:"type"`
	Quantity       string     `json:"qty,omitempty"`
	Price          string     `json:"price,omitempty"`
	Currency       string     `json:"currency"`
	TradeDate      time.Time  `json:"trade_date"`
	SettleDate     *time.Time `json:"settle_date,omitempty"`
	Fees           string     `json:"fees"`
	Taxes          string     `json:"taxes"`
	FXRate         string     `json:"fx_rate,omitempty"`
	Note           string     `json:"note,omitempty"`
	Source         string     `json:"source,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newTransactionRecord(tx *models.Transaction, seq int64) transactionRecord {
	return transactionRecord{
		TransactionID:  tx.ID,
		Seq:            seq,
		PortfolioID:    tx.PortfolioID,
		AccountID:      tx.AccountID,
		SymbolID:       tx.SymbolID,
		Type:           string(tx.Type),
		Quantity:       optionalString(tx.Quantity),
		Price:          optionalString(tx.Price),
		Currency:       tx.Currency,
		TradeDate:      tx.TradeDate,
		SettleDate:     tx.SettleDate,
		Fees:           tx.Fees.String(),
		Taxes:          tx.Taxes.String(),
		FXRate:         optionalString(tx.FXRate),
		Note:           tx.Note,
		Source:         tx.Source,
		IdempotencyKey: tx.IdempotencyKey,
		CreatedAt:      tx.CreatedAt,
	}
}

func (r transactionRecord) model() (models.Transaction, error) {
	tx := models.Transaction{
		ID:             r.TransactionID,
		PortfolioID:    r.PortfolioID,
		AccountID:      r.AccountID,
		SymbolID:       r.SymbolID,
		Type:           models.TransactionType(r.Type),
		Currency:       r.Currency,
		TradeDate:      r.TradeDate.UTC(),
		Note:           r.Note,
		Source:         r.Source,
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.SettleDate != nil {
		settle := r.SettleDate.UTC()
		tx.SettleDate = &settle
	}

	var err error
	if tx.Quantity, err = optionalDecimal(r.Quantity); err != nil {
		return tx, err
	}
	if tx.Price, err = optionalDecimal(r.Price); err != nil {
		return tx, err
	}
	if tx.FXRate, err = optionalDecimal(r.FXRate); err != nil {
		return tx, err
	}
	if tx.Fees, err = requiredDecimal(r.Fees); err != nil {
		return tx, err
	}
	if tx.Taxes, err = requiredDecimal(r.Taxes); err != nil {
		return tx, err
	}
	return tx, nil
}

type positionRecord struct {
	PortfolioID string    `json:"portfolio_id"`
	AccountID   string    `json:"account_id"`
	SymbolID    string    `json:"symbol_id"`
	Quantity    string    `json:"qty"`
	AvgCost     string    `json:"avg_cost"`
	Currency    string    `json:"currency"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newPositionRecord(p *models.Position) positionRecord {
	return positionRecord{
		PortfolioID: p.PortfolioID,
		AccountID:   p.AccountID,
		SymbolID:    p.SymbolID,
		Quantity:    p.Quantity.String(),
		AvgCost:     p.AvgCost.String(),
		Currency:    p.Currency,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r positionRecord) model() (models.Position, error) {
	p := models.Position{
		PortfolioID: r.PortfolioID,
		AccountID:   r.AccountID,
		SymbolID:    r.SymbolID,
		Currency:    r.Currency,
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	var err error
	if p.Quantity, err = requiredDecimal(r.Quantity); err != nil {
		return p, err
	}
	if p.AvgCost, err = requiredDecimal(r.AvgCost); err != nil {
		return p, err
	}
	return p, nil
}

type snapshotRecord struct {
	SnapshotID  string    `json:"snapshot_id"`
	PortfolioID string    `json:"portfolio_id"`
	AsOf        time.Time `json:"as_of"`
	Totals      string    `json:"totals"`
	Positions   string    `json:"positions"`
	FXUsed      string    `json:"fx_used"`
	CreatedAt   time.Time `json:"created_at"`
}

func newSnapshotRecord(s *models.ValuationSnapshot) snapshotRecord {
	return snapshotRecord{
		SnapshotID:  s.ID,
		PortfolioID: s.PortfolioID,
		AsOf:        s.AsOf,
		Totals:      s.TotalsJSON,
		Positions:   s.PositionsJSON,
		FXUsed:      s.FXUsedJSON,
		CreatedAt:   s.CreatedAt,
	}
}

func (r snapshotRecord) model() models.ValuationSnapshot {
	return models.ValuationSnapshot{
		ID:            r.SnapshotID,
		PortfolioID:   r.PortfolioID,
		AsOf:          r.AsOf.UTC(),
		TotalsJSON:    r.Totals,
		PositionsJSON: r.Positions,
		FXUsedJSON:    r.FXUsed,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func optionalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid stored decimal %q: %w", s, err)
	}
	return &d, nil
}

func requiredDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored decimal %q: %w", s, err)
	}
	return d, nil
}

// isAlreadyExistsError reports a CREATE on an existing record id.
func isAlreadyExistsError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// storeError classifies a SurrealDB failure as a dependency error.
func storeError(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", models.ErrDependencyUnavailable, op, err)
}

// firstResult returns the rows of the first statement of a query response.
func firstResult[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return nil
	}
	return (*results)[0].Result
}

// statementError returns the first failed statement of a response, for SDK
// versions that report statement failures in the results instead of err.
func statementError[T any](results *[]surrealdb.QueryResult[T]) error {
	if results == nil {
		return nil
	}
	for _, r := range *results {
		if strings.EqualFold(r.Status, "ERR") {
			return fmt.Errorf("statement failed: %v", r.Result)
		}
	}
	return nil
}
