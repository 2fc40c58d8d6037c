package surrealdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// TransactionStore implements interfaces.TransactionStore using SurrealDB.
// Idempotency keys are claimed as records of their own table in the same
// database transaction as the ledger insert, so a reused key aborts the insert.
type TransactionStore struct {
	db     *surrealdb.DB
	logger *common.Logger

	mu      sync.Mutex
	lastSeq int64
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(db *surrealdb.DB, logger *common.Logger) *TransactionStore {
	return &TransactionStore{db: db, logger: logger}
}

// nextSeq returns a strictly increasing insertion sequence for this process.
func (s *TransactionStore) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := time.Now().UnixNano()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	s.lastSeq = seq
	return seq
}

func (s *TransactionStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	rec := newTransactionRecord(tx, s.nextSeq())
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(tableTransaction, tx.ID),
		"record": rec,
	}

	sql := "CREATE $rid CONTENT $record"
	if tx.IdempotencyKey != "" {
		sql = `BEGIN TRANSACTION;
CREATE $kid SET transaction_id = $tid;
CREATE $rid CONTENT $record;
COMMIT TRANSACTION;`
		vars["kid"] = surrealmodels.NewRecordID(tableIdempotencyKey, tx.IdempotencyKey)
		vars["tid"] = tx.ID
	}

	results, err := surrealdb.Query[any](ctx, s.db, sql, vars)
	if err == nil {
		err = statementError(results)
	}
	if err != nil {
		if isAlreadyExistsError(err) {
			if tx.IdempotencyKey != "" {
				return fmt.Errorf("transaction '%s' or idempotency key '%s' already stored: %w", tx.ID, tx.IdempotencyKey, models.ErrConflict)
			}
			return fmt.Errorf("transaction '%s' already exists: %w", tx.ID, models.ErrConflict)
		}
		return storeError("save transaction", err)
	}

	s.logger.Debug().Str("transaction", tx.ID).Int64("seq", rec.Seq).Msg("Transaction saved")
	return nil
}

func (s *TransactionStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	rec, err := surrealdb.Select[transactionRecord](ctx, s.db, surrealmodels.NewRecordID(tableTransaction, id))
	if err != nil {
		return nil, storeError("get transaction", err)
	}
	if rec == nil || rec.TransactionID == "" {
		return nil, fmt.Errorf("transaction '%s': %w", id, models.ErrNotFound)
	}
	tx, err := rec.model()
	if err != nil {
		return nil, storeError("decode transaction", err)
	}
	return &tx, nil
}

func (s *TransactionStore) ListTransactions(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	sql := "SELECT * FROM ledger_tx WHERE portfolio_id = $pid ORDER BY seq ASC"
	results, err := surrealdb.Query[[]transactionRecord](ctx, s.db, sql, map[string]any{"pid": portfolioID})
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	rows := firstResult(results)
	out := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := r.model()
		if err != nil {
			return nil, storeError("decode transaction", err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *TransactionStore) TransactionExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	sql := "SELECT count() AS cnt FROM ledger_tx WHERE idempotency_key = $key GROUP ALL"
	results, err := surrealdb.Query[[]struct {
		Cnt int `json:"cnt"`
	}](ctx, s.db, sql, map[string]any{"key": key})
	if err != nil {
		return false, storeError("check idempotency key", err)
	}
	rows := firstResult(results)
	return len(rows) > 0 && rows[0].Cnt > 0, nil
}
