package surrealdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/models"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ledgerTx(id, portfolio, key string, created time.Time) *models.Transaction {
	return &models.Transaction{
		ID:             id,
		PortfolioID:    portfolio,
		AccountID:      "acct-1",
		SymbolID:       "AAPL",
		Type:           models.TxBuy,
		Quantity:       decPtr("10.12345678"),
		Price:          decPtr("187.5"),
		Currency:       "USD",
		TradeDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Fees:           decimal.RequireFromString("1.25"),
		Taxes:          decimal.Zero,
		IdempotencyKey: key,
		CreatedAt:      created,
	}
}

func TestManager_Backend(t *testing.T) {
	m := testManager(t)
	assert.Equal(t, "surrealdb", m.Backend())
}

func TestPortfolioStore_CRUD(t *testing.T) {
	store := testManager(t).PortfolioStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, store.SavePortfolio(ctx, &models.Portfolio{ID: "p1", OwnerID: "alice", Name: "Core", BaseCurrency: "USD", CreatedAt: now}))
	require.NoError(t, store.SavePortfolio(ctx, &models.Portfolio{ID: "p2", OwnerID: "alice", Name: "Side", BaseCurrency: "EUR", CreatedAt: now.Add(time.Hour)}))
	require.NoError(t, store.SavePortfolio(ctx, &models.Portfolio{ID: "p3", OwnerID: "bob", Name: "Other", BaseCurrency: "USD", CreatedAt: now}))

	got, err := store.GetPortfolio(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Core", got.Name)
	assert.Equal(t, "alice", got.OwnerID)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = store.GetPortfolio(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	list, err := store.ListPortfoliosByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "p2", list[1].ID)

	require.NoError(t, store.SaveAccount(ctx, &models.Account{ID: "a1", PortfolioID: "p1", Name: "Broker", Currency: "USD", CreatedAt: now}))
	acct, err := store.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "p1", acct.PortfolioID)

	_, err = store.GetAccount(ctx, "nope")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	accounts, err := store.ListAccounts(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestTransactionStore_InsertionOrderAndDecimals(t *testing.T) {
	store := testManager(t).TransactionStore()
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Later ids and earlier timestamps must not change insertion order.
	require.NoError(t, store.SaveTransaction(ctx, ledgerTx("tx-c", "p1", "", created)))
	require.NoError(t, store.SaveTransaction(ctx, ledgerTx("tx-a", "p1", "", created.Add(-time.Hour))))
	require.NoError(t, store.SaveTransaction(ctx, ledgerTx("tx-b", "p1", "", created)))
	require.NoError(t, store.SaveTransaction(ctx, ledgerTx("tx-x", "p2", "", created)))

	list, err := store.ListTransactions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"tx-c", "tx-a", "tx-b"}, []string{list[0].ID, list[1].ID, list[2].ID})

	got, err := store.GetTransaction(ctx, "tx-c")
	require.NoError(t, err)
	require.NotNil(t, got.Quantity)
	assert.Equal(t, "10.12345678", got.Quantity.String())
	assert.Equal(t, "187.5", got.Price.String())
	assert.Equal(t, "1.25", got.Fees.String())
	assert.Nil(t, got.FXRate)
	assert.Nil(t, got.SettleDate)

	_, err = store.GetTransaction(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = store.SaveTransaction(ctx, ledgerTx("tx-c", "p1", "", created))
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestTransactionStore_IdempotencyKey(t *testing.T) {
	store := testManager(t).TransactionStore()
	ctx := context.Background()
	now := time.Now().UTC()

	exists, err := store.TransactionExistsByIdempotencyKey(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.SaveTransaction(ctx, ledgerTx("tx-1", "p1", "k1", now)))

	exists, err = store.TransactionExistsByIdempotencyKey(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.SaveTransaction(ctx, ledgerTx("tx-2", "p1", "k1", now))
	assert.True(t, errors.Is(err, models.ErrConflict))

	_, err = store.GetTransaction(ctx, "tx-2")
	assert.True(t, errors.Is(err, models.ErrNotFound), "aborted insert must not leave a ledger row")

	// Blank keys never collide.
	require.NoError(t, store.SaveTransaction(ctx, ledgerTx("tx-3", "p1", "", now)))
	require.NoError(t, store.SaveTransaction(ctx, ledgerTx("tx-4", "p1", "", now)))
}

func TestTransactionStore_ConcurrentSameKey(t *testing.T) {
	store := testManager(t).TransactionStore()
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := ledgerTx("tx-"+string(rune('a'+i)), "p1", "same", time.Now().UTC())
			if err := store.SaveTransaction(ctx, tx); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	list, err := store.ListTransactions(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPositionStore_UpsertFindList(t *testing.T) {
	store := testManager(t).PositionStore()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	got, err := store.GetPosition(ctx, "p1", "a1", "AAPL")
	require.NoError(t, err)
	assert.Nil(t, got)

	found, err := store.FindPosition(ctx, "p1", "AAPL")
	require.NoError(t, err)
	assert.Nil(t, found)

	for _, p := range []models.Position{
		{PortfolioID: "p1", AccountID: "a2", SymbolID: "AAPL", Quantity: decimal.RequireFromString("5"), AvgCost: decimal.RequireFromString("100"), Currency: "USD", UpdatedAt: now},
		{PortfolioID: "p1", AccountID: "a1", SymbolID: "AAPL", Quantity: decimal.RequireFromString("3"), AvgCost: decimal.RequireFromString("90"), Currency: "EUR", UpdatedAt: now},
		{PortfolioID: "p1", AccountID: "a1", SymbolID: "MSFT", Quantity: decimal.RequireFromString("1"), AvgCost: decimal.RequireFromString("300"), Currency: "USD", UpdatedAt: now},
	} {
		p := p
		_, err := store.UpsertPosition(ctx, &p)
		require.NoError(t, err)
	}

	// Upsert replaces the row for the same key.
	_, err = store.UpsertPosition(ctx, &models.Position{PortfolioID: "p1", AccountID: "a2", SymbolID: "AAPL", Quantity: decimal.RequireFromString("7.5"), AvgCost: decimal.RequireFromString("101.12345678"), Currency: "USD", UpdatedAt: now})
	require.NoError(t, err)

	got, err = store.GetPosition(ctx, "p1", "a2", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "7.5", got.Quantity.String())
	assert.Equal(t, "101.12345678", got.AvgCost.String())

	found, err = store.FindPosition(ctx, "p1", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a1", found.AccountID)
	assert.Equal(t, "EUR", found.Currency)

	list, err := store.ListPositions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "AAPL", list[0].SymbolID)
	assert.Equal(t, "a1", list[0].AccountID)
	assert.Equal(t, "MSFT", list[2].SymbolID)
}

func TestValuationStore_LatestAndRange(t *testing.T) {
	store := testManager(t).ValuationStore()
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }

	latest, err := store.LatestValuationSnapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	for _, d := range []int{3, 1, 2} {
		saved, err := store.SaveValuationSnapshot(ctx, &models.ValuationSnapshot{
			PortfolioID:   "p1",
			AsOf:          day(d),
			TotalsJSON:    `{"NAV":"1.00000000","PnLDaily":0,"PnLYTD":0,"cash":{}}`,
			PositionsJSON: `[]`,
			FXUsedJSON:    `{}`,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.False(t, saved.CreatedAt.IsZero())
	}

	latest, err = store.LatestValuationSnapshot(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, day(3).Equal(latest.AsOf))
	assert.Equal(t, `[]`, latest.PositionsJSON)

	rng, err := store.ValuationSnapshotsInRange(ctx, "p1", day(1), day(2))
	require.NoError(t, err)
	require.Len(t, rng, 2)
	assert.True(t, day(1).Equal(rng[0].AsOf))
	assert.True(t, day(2).Equal(rng[1].AsOf))

	none, err := store.ValuationSnapshotsInRange(ctx, "p2", day(1), day(3))
	require.NoError(t, err)
	assert.Empty(t, none)
}
