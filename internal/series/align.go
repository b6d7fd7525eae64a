// Package series builds aligned pair series from per-ticker price bars
// and slices them into train/test segments.
package series

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"pairs-trading-lab/internal/domain"
)

var (
	// ErrDuplicateTimestamp is returned when one ticker has two bars at the same timestamp.
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")
	// ErrNoOverlap is returned when the two tickers share no valid timestamp.
	ErrNoOverlap = errors.New("no overlapping bars")
)

// Align inner-joins the bars of two tickers on timestamp.
// Bars with a missing (NaN, Inf or non-positive) close are dropped before the join,
// so a timestamp survives only when both legs have a usable price.
// Input order does not matter; the result is strictly increasing in time.
func Align(tickerY, tickerX string, ys, xs []*domain.PriceBar) (*domain.PairSeries, error) {
	yByTime, err := indexBars(tickerY, ys)
	if err != nil {
		return nil, err
	}
	xByTime, err := indexBars(tickerX, xs)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.PairRow, 0, min(len(yByTime), len(xByTime)))
	for ts, py := range yByTime {
		px, ok := xByTime[ts]
		if !ok {
			continue
		}
		rows = append(rows, domain.PairRow{TimestampMs: ts, PriceY: py, PriceX: px})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", tickerY, tickerX, ErrNoOverlap)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TimestampMs < rows[j].TimestampMs
	})

	return &domain.PairSeries{
		PairID:  PairID(tickerY, tickerX),
		TickerY: tickerY,
		TickerX: tickerX,
		Rows:    rows,
	}, nil
}

// PairID returns the canonical pair identifier "Y-X".
func PairID(tickerY, tickerX string) string {
	return tickerY + "-" + tickerX
}

func indexBars(ticker string, bars []*domain.PriceBar) (map[int64]float64, error) {
	byTime := make(map[int64]float64, len(bars))
	seen := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		if b == nil {
			continue
		}
		if _, dup := seen[b.TimestampMs]; dup {
			return nil, fmt.Errorf("%s at %d: %w", ticker, b.TimestampMs, ErrDuplicateTimestamp)
		}
		seen[b.TimestampMs] = struct{}{}
		if !usable(b.Close) {
			continue
		}
		byTime[b.TimestampMs] = b.Close
	}
	return byTime, nil
}

func usable(price float64) bool {
	return price > 0 && !math.IsNaN(price) && !math.IsInf(price, 0)
}
