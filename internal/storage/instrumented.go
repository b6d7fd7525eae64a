package storage

import (
	"context"
	"time"

	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/observability"
)

// InstrumentedPriceBarStore records query latency and errors for each call
// to the wrapped store.
type InstrumentedPriceBarStore struct {
	inner    PriceBarStore
	database string
	metrics  *observability.Metrics
}

// NewInstrumentedPriceBarStore wraps inner. database labels the metrics ("postgres", "clickhouse", ...).
func NewInstrumentedPriceBarStore(inner PriceBarStore, database string, m *observability.Metrics) *InstrumentedPriceBarStore {
	return &InstrumentedPriceBarStore{inner: inner, database: database, metrics: m}
}

var _ PriceBarStore = (*InstrumentedPriceBarStore)(nil)

func (s *InstrumentedPriceBarStore) observe(operation string, start time.Time, err error) {
	s.metrics.RecordDBQuery(s.database, operation, time.Since(start).Seconds(), err)
}

// InsertBulk implements PriceBarStore.
func (s *InstrumentedPriceBarStore) InsertBulk(ctx context.Context, bars []*domain.PriceBar) error {
	start := time.Now()
	err := s.inner.InsertBulk(ctx, bars)
	s.observe("insert_bulk", start, err)
	return err
}

// GetByTicker implements PriceBarStore.
func (s *InstrumentedPriceBarStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.PriceBar, error) {
	start := time.Now()
	bars, err := s.inner.GetByTicker(ctx, ticker)
	s.observe("get_by_ticker", start, err)
	return bars, err
}

// GetByTimeRange implements PriceBarStore.
func (s *InstrumentedPriceBarStore) GetByTimeRange(ctx context.Context, ticker string, start, end int64) ([]*domain.PriceBar, error) {
	began := time.Now()
	bars, err := s.inner.GetByTimeRange(ctx, ticker, start, end)
	s.observe("get_by_time_range", began, err)
	return bars, err
}

// ListTickers implements PriceBarStore.
func (s *InstrumentedPriceBarStore) ListTickers(ctx context.Context) ([]string, error) {
	start := time.Now()
	tickers, err := s.inner.ListTickers(ctx)
	s.observe("list_tickers", start, err)
	return tickers, err
}
