// Package config loads run configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/series"
)

// Environment variables that override file values.
const (
	EnvPostgresDSN    = "PAIRS_POSTGRES_DSN"
	EnvClickhouseDSN  = "PAIRS_CLICKHOUSE_DSN"
	EnvPushgatewayURL = "PAIRS_PUSHGATEWAY_URL"
)

// Storage backends
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// ErrInvalid is returned when a loaded Config fails validation.
var ErrInvalid = errors.New("invalid config")

// PairConfig names the dependent (Y) and independent (X) tickers.
type PairConfig struct {
	Y string `yaml:"y"`
	X string `yaml:"x"`
}

// DataConfig controls the train/test split.
type DataConfig struct {
	TrainFraction float64 `yaml:"train_fraction"` // 0 disables the split
	Overlay       int     `yaml:"overlay"`
	From          int64   `yaml:"from_ms"`
	To            int64   `yaml:"to_ms"` // 0 loads all bars
}

// StorageConfig selects the price bar store.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`

	PostgresMaxConns int32 `yaml:"postgres_max_conns"` // 0 keeps the pgx default
	LogQueries       bool  `yaml:"log_queries"`        // debug-log every Postgres query
}

// MetricsConfig configures Prometheus export.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Config is the full run configuration shared by the binaries.
type Config struct {
	Pair     PairConfig                 `yaml:"pair"`
	Data     DataConfig                 `yaml:"data"`
	Backtest domain.BacktestConfig      `yaml:"backtest"`
	Screen   cointegration.ScreenConfig `yaml:"screen"`
	Sectors  map[string][]string        `yaml:"sectors"` // screening universe
	Storage  StorageConfig              `yaml:"storage"`
	Metrics  MetricsConfig              `yaml:"metrics"`
}

// DefaultSectors is the default screening universe.
func DefaultSectors() map[string][]string {
	return map[string][]string{
		"Clothing_and_Apparel":    {"COLM", "CPRI", "DKS", "DECK", "BIRK", "ASO", "GES", "BOOT"},
		"Financials":              {"MS", "SCHW", "CMA", "NTRS", "AMP", "BEN", "LPLA"},
		"Airlines":                {"CPA", "ALGT", "VLRS", "AER", "CHH"},
		"Food_and_Beverage":       {"KHC", "HSY", "MNST", "CELH", "POST", "TAP"},
		"Entertainment_and_Media": {"NWSA", "CHTR", "SPOT", "IMAX", "BILI"},
		"Automotive":              {"HMC", "TM", "STLA", "VWAGY", "VLVLY", "LI", "XPEV", "BYDDY"},
	}
}

// Default returns the baseline run: MS/SCHW, 60/40 split, 252-row overlay.
func Default() Config {
	return Config{
		Pair:     PairConfig{Y: "MS", X: "SCHW"},
		Data:     DataConfig{TrainFraction: series.DefaultTrainFraction, Overlay: series.DefaultOverlay},
		Backtest: domain.DefaultBacktestConfig,
		Screen:   cointegration.DefaultScreenConfig,
		Sectors:  DefaultSectors(),
		Storage:  StorageConfig{Backend: BackendMemory},
		Metrics:  MetricsConfig{Job: "pairs_backtest"},
	}
}

// Load reads path over Default, then applies .env and environment overrides.
// An empty path skips the file. A missing .env is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// yaml.v3 merges into existing maps; a file universe replaces the default one.
		cfg.Sectors = nil
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		if cfg.Sectors == nil {
			cfg.Sectors = DefaultSectors()
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv(EnvClickhouseDSN); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv(EnvPushgatewayURL); v != "" {
		c.Metrics.PushgatewayURL = v
	}
}

// Validate checks cross-field consistency and delegates to the backtest config.
func (c *Config) Validate() error {
	if c.Pair.Y != "" && c.Pair.Y == c.Pair.X {
		return fmt.Errorf("%w: pair tickers must differ", ErrInvalid)
	}
	if c.Data.TrainFraction < 0 || c.Data.TrainFraction >= 1 {
		return fmt.Errorf("%w: train_fraction must be in [0, 1)", ErrInvalid)
	}
	if c.Data.Overlay < 0 {
		return fmt.Errorf("%w: overlay must be non-negative", ErrInvalid)
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres backend needs a DSN (%s)", ErrInvalid, EnvPostgresDSN)
		}
	case BackendClickhouse:
		if c.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("%w: clickhouse backend needs a DSN (%s)", ErrInvalid, EnvClickhouseDSN)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.Storage.Backend)
	}
	if c.Storage.PostgresMaxConns < 0 {
		return fmt.Errorf("%w: postgres_max_conns must be non-negative", ErrInvalid)
	}
	if c.Screen.CorrelationWindow < 2 || c.Screen.ADFLags < 0 || c.Screen.Workers < 0 {
		return fmt.Errorf("%w: screen needs correlation_window >= 2, adf_lags >= 0, workers >= 0", ErrInvalid)
	}
	return c.Backtest.Validate()
}
