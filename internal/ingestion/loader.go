package ingestion

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"pairs-trading-lab/internal/observability"
	"pairs-trading-lab/internal/storage"
)

// Loader imports daily close files into a price bar store.
type Loader struct {
	store   storage.PriceBarStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Store   storage.PriceBarStore
	Metrics *observability.Metrics // optional
	Logger  *zap.Logger            // optional, defaults to no-op
}

// NewLoader creates a new Loader.
func NewLoader(opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: opts.Store, metrics: opts.Metrics, logger: logger}
}

// LoadFile parses path and inserts its bars for ticker as one batch.
// Returns the number of bars stored.
func (l *Loader) LoadFile(ctx context.Context, ticker, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := ReadCSV(f, ticker)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := l.store.InsertBulk(ctx, res.Bars); err != nil {
		return 0, fmt.Errorf("store %s bars: %w", ticker, err)
	}

	l.metrics.RecordBarsIngested(ticker, len(res.Bars))
	l.logger.Info("bars ingested",
		zap.String("ticker", ticker),
		zap.String("path", path),
		zap.Int("bars", len(res.Bars)),
		zap.Int("skipped", res.Skipped),
	)
	return len(res.Bars), nil
}
