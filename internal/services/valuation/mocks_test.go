package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// --- Mock Market Data ---

type mockMarketData struct {
	quotes     map[string]models.Quote
	rates      map[string]decimal.Decimal
	quotesErr  error
	fxErr      error
	quoteCalls int
	fxCalls    int
	lastPairs  []string
	lastSyms   []string
}

func (m *mockMarketData) Quotes(_ context.Context, symbols []string) (map[string]models.Quote, error) {
	m.quoteCalls++
	m.lastSyms = symbols
	if m.quotesErr != nil {
		return nil, m.quotesErr
	}
	out := make(map[string]models.Quote)
	for _, s := range symbols {
		if q, ok := m.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func (m *mockMarketData) FX(_ context.Context, pairs []string) (map[string]decimal.Decimal, error) {
	m.fxCalls++
	m.lastPairs = pairs
	if m.fxErr != nil {
		return nil, m.fxErr
	}
	out := make(map[string]decimal.Decimal)
	for _, p := range pairs {
		if r, ok := m.rates[p]; ok {
			out[p] = r
		}
	}
	return out, nil
}

// --- Mock Storage ---

type mockStorageManager struct {
	posStore *mockPositionStore
	valStore *mockValuationStore
}

func (m *mockStorageManager) PortfolioStore() interfaces.PortfolioStore     { return nil }
func (m *mockStorageManager) TransactionStore() interfaces.TransactionStore { return nil }
func (m *mockStorageManager) PositionStore() interfaces.PositionStore       { return m.posStore }
func (m *mockStorageManager) ValuationStore() interfaces.ValuationStore     { return m.valStore }
func (m *mockStorageManager) Backend() string                               { return "mock" }
func (m *mockStorageManager) Close() error                                  { return nil }

type mockPositionStore struct {
	positions []models.Position
	listErr   error
}

func (m *mockPositionStore) FindPosition(_ context.Context, _, _ string) (*models.Position, error) {
	return nil, nil
}

func (m *mockPositionStore) GetPosition(_ context.Context, _, _, _ string) (*models.Position, error) {
	return nil, nil
}

func (m *mockPositionStore) UpsertPosition(_ context.Context, p *models.Position) (*models.Position, error) {
	return p, nil
}

func (m *mockPositionStore) ListPositions(_ context.Context, _ string) ([]models.Position, error) {
	return m.positions, m.listErr
}

type mockValuationStore struct {
	snapshots []models.ValuationSnapshot
	saveErr   error
}

func (m *mockValuationStore) SaveValuationSnapshot(_ context.Context, s *models.ValuationSnapshot) (*models.ValuationSnapshot, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	out := *s
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	m.snapshots = append(m.snapshots, out)
	return &out, nil
}

func (m *mockValuationStore) LatestValuationSnapshot(_ context.Context, portfolioID string) (*models.ValuationSnapshot, error) {
	var latest *models.ValuationSnapshot
	for i := range m.snapshots {
		s := &m.snapshots[i]
		if s.PortfolioID != portfolioID {
			continue
		}
		if latest == nil || s.AsOf.After(latest.AsOf) {
			latest = s
		}
	}
	return latest, nil
}

func (m *mockValuationStore) ValuationSnapshotsInRange(_ context.Context, portfolioID string, from, to time.Time) ([]models.ValuationSnapshot, error) {
	var out []models.ValuationSnapshot
	for _, s := range m.snapshots {
		if s.PortfolioID == portfolioID && !s.AsOf.Before(from) && !s.AsOf.After(to) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AsOf.Before(out[j].AsOf) })
	return out, nil
}

// --- Mock Portfolio Service ---

type mockPortfolioService struct {
	owner string
	base  string
}

func (m *mockPortfolioService) CreatePortfolio(_ context.Context, _, _, _ string) (*models.Portfolio, error) {
	return nil, nil
}

func (m *mockPortfolioService) GetPortfolio(_ context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	if userID != m.owner {
		return nil, fmt.Errorf("portfolio %s: %w", portfolioID, models.ErrNotFound)
	}
	return &models.Portfolio{ID: portfolioID, OwnerID: userID, BaseCurrency: m.base}, nil
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

func (m *mockPortfolioService) GetAccount(_ context.Context, _, _, _ string) (*models.Account, error) {
	return nil, nil
}

// --- Fixtures ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func input(symbol, qty, avg, ccy string) models.PositionInput {
	return models.PositionInput{SymbolID: symbol, Quantity: dec(qty), AvgCost: dec(avg), Currency: ccy}
}

func quote(symbol, last string) models.Quote {
	return models.Quote{Symbol: symbol, Last: dec(last)}
}
