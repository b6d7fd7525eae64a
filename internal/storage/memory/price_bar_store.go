package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]*domain.PriceBar // ticker -> timestamp_ms -> bar
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]map[int64]*domain.PriceBar),
	}
}

func barKey(ticker string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", ticker, timestampMs)
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate.
func (s *PriceBarStore) InsertBulk(_ context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(bars))

	// First pass: validate and check for duplicates (existing + intra-batch)
	for _, b := range bars {
		if b == nil || b.Ticker == "" || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[b.Ticker][b.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		key := barKey(b.Ticker, b.TimestampMs)
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, b := range bars {
		byTime, ok := s.data[b.Ticker]
		if !ok {
			byTime = make(map[int64]*domain.PriceBar)
			s.data[b.Ticker] = byTime
		}
		barCopy := *b
		byTime[b.TimestampMs] = &barCopy
	}

	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by timestamp ASC.
func (s *PriceBarStore) GetByTicker(_ context.Context, ticker string) ([]*domain.PriceBar, error) {
	return s.collect(ticker, math.MinInt64, math.MaxInt64), nil
}

// GetByTimeRange retrieves bars for a ticker within [start, end] (inclusive).
func (s *PriceBarStore) GetByTimeRange(_ context.Context, ticker string, start, end int64) ([]*domain.PriceBar, error) {
	return s.collect(ticker, start, end), nil
}

// ListTickers returns every ticker with at least one bar, sorted ASC.
func (s *PriceBarStore) ListTickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickers := make([]string, 0, len(s.data))
	for ticker := range s.data {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (s *PriceBarStore) collect(ticker string, start, end int64) []*domain.PriceBar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceBar
	for ts, b := range s.data[ticker] {
		if ts >= start && ts <= end {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result
}

var _ storage.PriceBarStore = (*PriceBarStore)(nil)
