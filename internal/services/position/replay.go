package position

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/models"
)

// avgCostScale is the number of fractional digits kept on AvgCost.
const avgCostScale = 8

// ReplayResult is the folded state of a ledger.
type ReplayResult struct {
	Quantity decimal.Decimal
	AvgCost  decimal.Decimal
	// Skipped holds the non-trade entries the fold ignored, in replay order.
	Skipped []models.Transaction
}

// Replay folds a chronologically ordered ledger into quantity and weighted-average
// cost. BUY blends its gross cost (price*qty + fees + taxes) into AvgCost; SELL
// reduces quantity, clamped at zero, and leaves AvgCost alone. Other types are
// returned in Skipped. A trade failing validation aborts the fold.
func Replay(ledger []models.Transaction) (ReplayResult, error) {
	res := ReplayResult{Quantity: decimal.Zero, AvgCost: decimal.Zero}

	for i := range ledger {
		tx := &ledger[i]
		switch tx.Type {
		case models.TxBuy:
			if err := tx.Validate(); err != nil {
				return ReplayResult{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
			}
			qty := tx.QuantityOrZero()
			gross := tx.PriceOrZero().Mul(qty).Add(tx.Fees).Add(tx.Taxes)
			newQty := res.Quantity.Add(qty)
			if newQty.IsZero() {
				res.AvgCost = decimal.Zero
			} else {
				res.AvgCost = res.AvgCost.Mul(res.Quantity).Add(gross).DivRound(newQty, avgCostScale)
			}
			res.Quantity = newQty

		case models.TxSell:
			if err := tx.Validate(); err != nil {
				return ReplayResult{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
			}
			res.Quantity = decimal.Max(decimal.Zero, res.Quantity.Sub(tx.QuantityOrZero()))

		default:
			res.Skipped = append(res.Skipped, *tx)
		}
	}

	return res, nil
}

// filterLedger keeps the entries of one account and symbol.
func filterLedger(txs []models.Transaction, accountID, symbolID string) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.AccountID == accountID && tx.SymbolID == symbolID {
			out = append(out, tx)
		}
	}
	return out
}

// sortLedger orders by trade date, then creation time. Entries equal on both keep
// the order the store returned them in.
func sortLedger(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].TradeDate.Equal(txs[j].TradeDate) {
			return txs[i].TradeDate.Before(txs[j].TradeDate)
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
}
