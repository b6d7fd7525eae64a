package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using PostgreSQL.
type PriceBarStore struct {
	pool *Pool
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(pool *Pool) *PriceBarStore {
	return &PriceBarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

// InsertBulk adds multiple bars atomically. Fails entire batch on any duplicate.
func (s *PriceBarStore) InsertBulk(ctx context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	for _, b := range bars {
		if b == nil || b.Ticker == "" || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(`
			INSERT INTO price_bars (ticker, timestamp_ms, close)
			VALUES ($1, $2, $3)
		`, b.Ticker, b.TimestampMs, b.Close)
	}

	results := tx.SendBatch(ctx, batch)
	for range bars {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return translateError(err, "insert price bar in bulk")
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by timestamp ASC.
func (s *PriceBarStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.PriceBar, error) {
	query := `
		SELECT ticker, timestamp_ms, close
		FROM price_bars
		WHERE ticker = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("get price bars by ticker: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// GetByTimeRange retrieves bars for a ticker within [start, end] (inclusive).
func (s *PriceBarStore) GetByTimeRange(ctx context.Context, ticker string, start, end int64) ([]*domain.PriceBar, error) {
	query := `
		SELECT ticker, timestamp_ms, close
		FROM price_bars
		WHERE ticker = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("get price bars by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// ListTickers returns every stored ticker, sorted ASC.
func (s *PriceBarStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT ticker FROM price_bars ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	defer rows.Close()

	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect tickers: %w", err)
	}
	return tickers, nil
}

// scanPriceBars scans multiple rows into a slice of PriceBar.
func scanPriceBars(rows pgx.Rows) ([]*domain.PriceBar, error) {
	var bars []*domain.PriceBar

	for rows.Next() {
		var b domain.PriceBar
		if err := rows.Scan(&b.Ticker, &b.TimestampMs, &b.Close); err != nil {
			return nil, fmt.Errorf("scan price bar row: %w", err)
		}
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price bar rows: %w", err)
	}

	return bars, nil
}
