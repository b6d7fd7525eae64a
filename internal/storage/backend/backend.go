// Package backend opens the price bar store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pairs-trading-lab/internal/config"
	"pairs-trading-lab/internal/observability"
	"pairs-trading-lab/internal/storage"
	chstore "pairs-trading-lab/internal/storage/clickhouse"
	"pairs-trading-lab/internal/storage/memory"
	"pairs-trading-lab/internal/storage/migrations"
	pgstore "pairs-trading-lab/internal/storage/postgres"
)

// Store is an opened price bar store and the function that releases it.
type Store struct {
	storage.PriceBarStore
	Backend string
	close   func()
}

// Close releases the underlying connection. Safe to call on memory stores.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the configured backend, applies migrations when migrate
// is set, and wraps SQL stores with query metrics.
func Open(ctx context.Context, cfg config.StorageConfig, migrate bool, m *observability.Metrics, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.BackendMemory, "":
		return &Store{PriceBarStore: memory.NewPriceBarStore(), Backend: config.BackendMemory}, nil

	case config.BackendPostgres:
		opts := []pgstore.PoolOption{pgstore.WithMaxConns(cfg.PostgresMaxConns)}
		if cfg.LogQueries {
			opts = append(opts, pgstore.WithQueryLogger(logger.Named("postgres")))
		}
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, opts...)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := migrations.RunPostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		return &Store{
			PriceBarStore: storage.NewInstrumentedPriceBarStore(pgstore.NewPriceBarStore(pool), config.BackendPostgres, m),
			Backend:       config.BackendPostgres,
			close:         pool.Close,
		}, nil

	case config.BackendClickhouse:
		conn, err := openClickhouse(ctx, cfg.ClickhouseDSN, migrate)
		if err != nil {
			return nil, err
		}
		if migrate {
			logger.Info("clickhouse migrations applied")
		}
		return &Store{
			PriceBarStore: storage.NewInstrumentedPriceBarStore(chstore.NewPriceBarStore(conn), config.BackendClickhouse, m),
			Backend:       config.BackendClickhouse,
			close:         func() { _ = conn.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// openClickhouse returns a connection to the DSN's database, creating it
// and its tables first when migrate is set.
func openClickhouse(ctx context.Context, dsn string, migrate bool) (*chstore.Conn, error) {
	if migrate {
		return migrations.RunClickhouse(ctx, dsn)
	}
	return chstore.NewConn(ctx, dsn)
}
