package cointegration

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/series"
	"pairs-trading-lab/internal/storage"
)

// LoadCandidates builds one Candidate per unordered ticker pair of each
// sector, visiting sectors in name order. Each ticker is read once.
// With trainFraction > 0 only the training segment is screened.
// Pairs whose bars never overlap are returned in skipped instead of failing the load.
func LoadCandidates(ctx context.Context, store storage.PriceBarStore, sectors map[string][]string, trainFraction float64) (candidates []Candidate, skipped []string, err error) {
	names := make([]string, 0, len(sectors))
	for name := range sectors {
		names = append(names, name)
	}
	sort.Strings(names)

	bars := make(map[string][]*domain.PriceBar)
	load := func(ticker string) ([]*domain.PriceBar, error) {
		if b, ok := bars[ticker]; ok {
			return b, nil
		}
		b, err := store.GetByTicker(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ticker, err)
		}
		bars[ticker] = b
		return b, nil
	}

	for _, sector := range names {
		for _, pair := range Pairs(sectors[sector]) {
			ys, err := load(pair[0])
			if err != nil {
				return nil, nil, err
			}
			xs, err := load(pair[1])
			if err != nil {
				return nil, nil, err
			}

			aligned, err := series.Align(pair[0], pair[1], ys, xs)
			if errors.Is(err, series.ErrNoOverlap) {
				skipped = append(skipped, series.PairID(pair[0], pair[1]))
				continue
			}
			if err != nil {
				return nil, nil, err
			}

			if trainFraction > 0 {
				aligned, _, err = series.Split(aligned, trainFraction)
				if err != nil {
					return nil, nil, err
				}
			}
			candidates = append(candidates, Candidate{Sector: sector, Series: *aligned})
		}
	}
	return candidates, skipped, nil
}
