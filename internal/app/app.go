// Package app wires configuration, storage, market data and services together.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/folio/internal/clients/pricefetcher"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/services/position"
	"github.com/bobmcallan/folio/internal/services/transaction"
	"github.com/bobmcallan/folio/internal/services/valuation"
	"github.com/bobmcallan/folio/internal/storage"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Storage            interfaces.StorageManager
	MarketData         interfaces.MarketDataClient
	PortfolioService   interfaces.PortfolioService
	PositionService    interfaces.PositionService
	TransactionService interfaces.TransactionService
	ValuationService   interfaces.ValuationService
	StartupTime        time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath returns configPath, FOLIO_CONFIG, folio.toml next to the
// binary, or config/folio.toml, in that order.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes the application.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to the binary directory
	binDir := getBinaryDir()
	if config.Storage.Badger.Path != "" && !filepath.IsAbs(config.Storage.Badger.Path) {
		config.Storage.Badger.Path = filepath.Join(binDir, config.Storage.Badger.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	market := pricefetcher.NewClient(
		pricefetcher.WithBaseURL(config.Clients.PriceFetcher.BaseURL),
		pricefetcher.WithTimeout(config.Clients.PriceFetcher.GetTimeout()),
		pricefetcher.WithRateLimit(config.Clients.PriceFetcher.RateLimit),
		pricefetcher.WithLogger(logger),
	)

	return New(config, logger, storageManager, market), nil
}

// New builds the services over an existing storage manager and market data client.
func New(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager, market interfaces.MarketDataClient) *App {
	startupStart := time.Now()

	portfolioService := portfolio.NewService(storageManager, config.Valuation.DefaultCurrency, logger)
	positionService := position.NewService(storageManager, portfolioService, logger)
	transactionService := transaction.NewService(storageManager, portfolioService, positionService, logger)

	engine := valuation.NewEngine(market, logger,
		valuation.WithStrictMarketData(config.Valuation.StrictMarketData),
	)
	valuationService := valuation.NewService(storageManager, portfolioService, engine, logger)

	logger.Info().
		Str("storage", storageManager.Backend()).
		Bool("strict_market_data", config.Valuation.StrictMarketData).
		Dur("elapsed", time.Since(startupStart)).
		Msg("Application initialized")

	return &App{
		Config:             config,
		Logger:             logger,
		Storage:            storageManager,
		MarketData:         market,
		PortfolioService:   portfolioService,
		PositionService:    positionService,
		TransactionService: transactionService,
		ValuationService:   valuationService,
		StartupTime:        startupStart,
	}
}

// Close releases storage resources.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
