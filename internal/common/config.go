// Package common provides shared utilities for folio
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for folio
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Valuation   ValuationConfig `toml:"valuation"`
	Auth        AuthConfig      `toml:"auth"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend   string        `toml:"backend"` // "badger" (embedded, default) or "surrealdb"
	Badger    BadgerConfig  `toml:"badger"`
	SurrealDB SurrealConfig `toml:"surrealdb"`
}

// BadgerConfig holds the embedded BadgerHold store location.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// SurrealConfig holds SurrealDB connection settings.
type SurrealConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	PriceFetcher PriceFetcherConfig `toml:"pricefetcher"`
}

// PriceFetcherConfig holds the market data service configuration
type PriceFetcherConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *PriceFetcherConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// ValuationConfig controls valuation runs.
type ValuationConfig struct {
	// StrictMarketData makes a failing market data call abort the valuation run
	// instead of degrading every position to its fallback price and rate.
	StrictMarketData bool `toml:"strict_market_data"`
	// DefaultCurrency is the base currency of portfolios created without one.
	DefaultCurrency string `toml:"default_currency"`
}

// AuthConfig holds bearer token validation settings.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	RequireAuth bool   `toml:"require_auth"` // when false, X-Folio-User-ID is accepted without a token
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: "badger",
			Badger:  BadgerConfig{Path: "data/folio"},
			SurrealDB: SurrealConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "folio",
				Database:  "folio",
				Username:  "root",
				Password:  "root",
			},
		},
		Clients: ClientsConfig{
			PriceFetcher: PriceFetcherConfig{
				BaseURL:   "http://localhost:8080",
				RateLimit: 10,
				Timeout:   "2s",
			},
		},
		Valuation: ValuationConfig{
			DefaultCurrency: "USD",
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/folio.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("FOLIO_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("FOLIO_DATA_PATH"); path != "" {
		config.Storage.Badger.Path = filepath.Join(path, "folio")
	}

	if addr := os.Getenv("FOLIO_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}
	if v := os.Getenv("FOLIO_SURREALDB_USERNAME"); v != "" {
		config.Storage.SurrealDB.Username = v
	}
	if v := os.Getenv("FOLIO_SURREALDB_PASSWORD"); v != "" {
		config.Storage.SurrealDB.Password = v
	}

	if url := os.Getenv("FOLIO_PRICEFETCHER_URL"); url != "" {
		config.Clients.PriceFetcher.BaseURL = url
	}
	if timeout := os.Getenv("FOLIO_PRICEFETCHER_TIMEOUT"); timeout != "" {
		config.Clients.PriceFetcher.Timeout = timeout
	}

	if v := os.Getenv("FOLIO_VALUATION_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Valuation.StrictMarketData = b
		}
	}

	if v := os.Getenv("FOLIO_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("FOLIO_AUTH_REQUIRE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Auth.RequireAuth = b
		}
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "badger", "surrealdb":
	default:
		return fmt.Errorf("unknown storage backend %q (want badger or surrealdb)", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if !ValidBaseCurrency(c.Valuation.DefaultCurrency) {
		return fmt.Errorf("invalid valuation.default_currency %q", c.Valuation.DefaultCurrency)
	}
	if c.Clients.PriceFetcher.BaseURL == "" {
		return fmt.Errorf("clients.pricefetcher.base_url is required")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidBaseCurrency reports whether code can be used as a portfolio base currency.
func ValidBaseCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	return len(code) == 3 && money.GetCurrency(code) != nil
}
