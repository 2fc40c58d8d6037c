package badger

import (
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Manager implements interfaces.StorageManager over one BadgerHold store.
type Manager struct {
	store        *Store
	portfolios   *portfolioStorage
	transactions *transactionStorage
	positions    *positionStorage
	valuations   *valuationStorage
}

var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager opens the store at path and builds its typed storages.
func NewManager(logger *common.Logger, path string) (*Manager, error) {
	store, err := NewStore(logger, path)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Badger storage manager initialized")

	return &Manager{
		store:        store,
		portfolios:   NewPortfolioStorage(store, logger),
		transactions: NewTransactionStorage(store, logger),
		positions:    NewPositionStorage(store, logger),
		valuations:   NewValuationStorage(store, logger),
	}, nil
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore {
	return m.portfolios
}

func (m *Manager) TransactionStore() interfaces.TransactionStore {
	return m.transactions
}

func (m *Manager) PositionStore() interfaces.PositionStore {
	return m.positions
}

func (m *Manager) ValuationStore() interfaces.ValuationStore {
	return m.valuations
}

func (m *Manager) Backend() string {
	return "badger"
}

func (m *Manager) Close() error {
	return m.store.Close()
}
