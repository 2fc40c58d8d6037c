package position

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// --- Mock Storage ---

type mockStorageManager struct {
	txStore  *mockTransactionStore
	posStore *mockPositionStore
}

func (m *mockStorageManager) PortfolioStore() interfaces.PortfolioStore     { return nil }
func (m *mockStorageManager) TransactionStore() interfaces.TransactionStore { return m.txStore }
func (m *mockStorageManager) PositionStore() interfaces.PositionStore       { return m.posStore }
func (m *mockStorageManager) ValuationStore() interfaces.ValuationStore     { return nil }
func (m *mockStorageManager) Backend() string                               { return "mock" }
func (m *mockStorageManager) Close() error                                  { return nil }

type mockTransactionStore struct {
	txs     []models.Transaction
	listErr error
}

func (m *mockTransactionStore) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *mockTransactionStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	return nil, fmt.Errorf("transaction %s: %w", id, models.ErrNotFound)
}

func (m *mockTransactionStore) ListTransactions(_ context.Context, portfolioID string) ([]models.Transaction, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.PortfolioID == portfolioID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *mockTransactionStore) TransactionExistsByIdempotencyKey(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type mockPositionStore struct {
	mu        sync.Mutex
	positions map[models.PositionKey]models.Position
	upserts   int
	upsertErr error
}

func newMockPositionStore() *mockPositionStore {
	return &mockPositionStore{positions: make(map[models.PositionKey]models.Position)}
}

func (m *mockPositionStore) FindPosition(_ context.Context, portfolioID, symbolID string) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []models.Position
	for k, p := range m.positions {
		if k.PortfolioID == portfolioID && k.SymbolID == symbolID {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].AccountID < found[j].AccountID })
	return &found[0], nil
}

func (m *mockPositionStore) GetPosition(_ context.Context, portfolioID, accountID, symbolID string) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[models.PositionKey{PortfolioID: portfolioID, AccountID: accountID, SymbolID: symbolID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPositionStore) UpsertPosition(_ context.Context, p *models.Position) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.upserts++
	m.positions[p.Key()] = *p
	out := *p
	return &out, nil
}

func (m *mockPositionStore) ListPositions(_ context.Context, portfolioID string) ([]models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Position
	for k, p := range m.positions {
		if k.PortfolioID == portfolioID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- Mock Portfolio Service ---

type mockPortfolioService struct {
	owner string
}

func (m *mockPortfolioService) CreatePortfolio(_ context.Context, _, _, _ string) (*models.Portfolio, error) {
	return nil, nil
}

func (m *mockPortfolioService) GetPortfolio(_ context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	if userID != m.owner {
		return nil, fmt.Errorf("portfolio %s: %w", portfolioID, models.ErrNotFound)
	}
	return &models.Portfolio{ID: portfolioID, OwnerID: userID, BaseCurrency: "USD"}, nil
}

func (m *mockPortfolioService) ListPortfolios(_ context.Context, _ string) ([]models.Portfolio, error) {
	return nil, nil
}

func (m *mockPortfolioService) ListAccounts(_ context.Context, _, _ string) ([]models.Account, error) {
	return nil, nil
}

func (m *mockPortfolioService) CreateAccount(_ context.Context, _, _, _, _ string) (*models.Account, error) {
	return nil, nil
}

func (m *mockPortfolioService) GetAccount(ctx context.Context, userID, portfolioID, accountID string) (*models.Account, error) {
	if _, err := m.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return &models.Account{ID: accountID, PortfolioID: portfolioID}, nil
}

// --- Fixtures ---

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func trade(id string, typ models.TransactionType, qty, price string, dayOffset int) models.Transaction {
	return models.Transaction{
		ID:          id,
		PortfolioID: "p1",
		AccountID:   "a1",
		SymbolID:    "AAPL",
		Type:        typ,
		Quantity:    decPtr(qty),
		Price:       decPtr(price),
		Currency:    "USD",
		TradeDate:   day0.AddDate(0, 0, dayOffset),
		CreatedAt:   day0.AddDate(0, 0, dayOffset),
	}
}
