package storage

import (
	"context"

	"pairs-trading-lab/internal/domain"
)

// PriceBarStore provides access to price_bars storage.
type PriceBarStore interface {
	// InsertBulk adds multiple bars atomically. Fails entire batch on duplicate (ticker, timestamp_ms).
	InsertBulk(ctx context.Context, bars []*domain.PriceBar) error

	// GetByTicker retrieves all bars for a ticker, ordered by timestamp ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.PriceBar, error)

	// GetByTimeRange retrieves bars for a ticker within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, ticker string, start, end int64) ([]*domain.PriceBar, error)

	// ListTickers returns every ticker with at least one bar, sorted ASC.
	ListTickers(ctx context.Context) ([]string, error)
}
