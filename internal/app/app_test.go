package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewApp_WiresServices(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	path := writeConfig(t, `
[storage]
backend = "badger"

[storage.badger]
path = "`+filepath.ToSlash(dataDir)+`"

[valuation]
strict_market_data = true
default_currency = "EUR"

[logging]
level = "disabled"
`)

	a, err := NewApp(path)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "badger", a.Storage.Backend())
	assert.Equal(t, dataDir, a.Config.Storage.Badger.Path)
	assert.True(t, a.Config.Valuation.StrictMarketData)
	assert.NotNil(t, a.MarketData)
	assert.NotNil(t, a.PortfolioService)
	assert.NotNil(t, a.PositionService)
	assert.NotNil(t, a.TransactionService)
	assert.NotNil(t, a.ValuationService)
	assert.False(t, a.StartupTime.IsZero())
}

func TestNewApp_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "postgres"
`)

	_, err := NewApp(path)
	assert.Error(t, err)
}

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/folio.toml", ResolveConfigPath("/etc/folio.toml"))

	t.Setenv("FOLIO_CONFIG", "/from/env.toml")
	assert.Equal(t, "/from/env.toml", ResolveConfigPath(""))
}
