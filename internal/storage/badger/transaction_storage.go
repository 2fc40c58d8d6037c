package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// transactionRecord stores a transaction with its insertion sequence so the
// ledger can be listed in the order it was written.
type transactionRecord struct {
	Seq uint64
	models.Transaction
}

type transactionStorage struct {
	store  *Store
	logger *common.Logger

	// mu serializes inserts so the idempotency check and the write are atomic.
	mu      sync.Mutex
	seq     uint64
	seqInit bool
}

// NewTransactionStorage creates a new TransactionStore backed by BadgerHold.
func NewTransactionStorage(store *Store, logger *common.Logger) *transactionStorage {
	return &transactionStorage{store: store, logger: logger}
}

func (s *transactionStorage) nextSeq() (uint64, error) {
	if !s.seqInit {
		var all []transactionRecord
		if err := s.store.db.Find(&all, nil); err != nil {
			return 0, err
		}
		for _, r := range all {
			if r.Seq > s.seq {
				s.seq = r.Seq
			}
		}
		s.seqInit = true
	}
	s.seq++
	return s.seq, nil
}

func (s *transactionStorage) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.IdempotencyKey != "" {
		n, err := s.store.db.Count(&transactionRecord{}, badgerhold.Where("IdempotencyKey").Eq(tx.IdempotencyKey))
		if err != nil {
			return fmt.Errorf("%w: failed to check idempotency key: %v", models.ErrDependencyUnavailable, err)
		}
		if n > 0 {
			return fmt.Errorf("idempotency key '%s' already used: %w", tx.IdempotencyKey, models.ErrConflict)
		}
	}

	seq, err := s.nextSeq()
	if err != nil {
		return fmt.Errorf("%w: failed to allocate sequence: %v", models.ErrDependencyUnavailable, err)
	}

	rec := transactionRecord{Seq: seq, Transaction: *tx}
	if err := s.store.db.Insert(tx.ID, &rec); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("transaction '%s' already exists: %w", tx.ID, models.ErrConflict)
		}
		return fmt.Errorf("%w: failed to save transaction: %v", models.ErrDependencyUnavailable, err)
	}

	s.logger.Debug().Str("transaction", tx.ID).Uint64("seq", seq).Msg("Transaction saved")
	return nil
}

func (s *transactionStorage) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	var rec transactionRecord
	if err := s.store.db.Get(id, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("transaction '%s': %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get transaction '%s': %v", models.ErrDependencyUnavailable, id, err)
	}
	tx := rec.Transaction
	return &tx, nil
}

func (s *transactionStorage) ListTransactions(_ context.Context, portfolioID string) ([]models.Transaction, error) {
	var recs []transactionRecord
	if err := s.store.db.Find(&recs, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("%w: failed to list transactions: %v", models.ErrDependencyUnavailable, err)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	out := make([]models.Transaction, len(recs))
	for i, r := range recs {
		out[i] = r.Transaction
	}
	return out, nil
}

func (s *transactionStorage) TransactionExistsByIdempotencyKey(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	n, err := s.store.db.Count(&transactionRecord{}, badgerhold.Where("IdempotencyKey").Eq(key))
	if err != nil {
		return false, fmt.Errorf("%w: failed to check idempotency key: %v", models.ErrDependencyUnavailable, err)
	}
	return n > 0, nil
}
