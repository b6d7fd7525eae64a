package cointegration

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pairs-trading-lab/internal/domain"
)

// Refresh is the outcome of re-estimating the vector at one row offset.
// Err != nil means the caller keeps its previous vector.
type Refresh struct {
	Offset int
	Result Result
	Err    error
}

// OK reports whether the refresh produced a usable vector.
func (r Refresh) OK() bool {
	return r.Err == nil
}

// Reestimate runs est over rows[offset-window : offset].
func Reestimate(est Estimator, rows []domain.PairRow, offset, window int) Refresh {
	if offset < window || offset > len(rows) {
		return Refresh{
			Offset: offset,
			Err:    fmt.Errorf("%w: offset %d, window %d", ErrWindowTooShort, offset, window),
		}
	}
	res, err := est.Estimate(rows[offset-window : offset])
	return Refresh{Offset: offset, Result: res, Err: err}
}

// Precompute re-estimates every offset in [from, len(rows)) on a pool of
// workers. Entry i of the returned slice holds the refresh for offset from+i.
// Each estimate reads only its own window, so results match a sequential run.
func Precompute(ctx context.Context, est Estimator, rows []domain.PairRow, from, window, workers int) ([]Refresh, error) {
	if from < window {
		from = window
	}
	if from >= len(rows) {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	out := make([]Refresh, len(rows)-from)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for offset := from; offset < len(rows); offset++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[offset-from] = Reestimate(est, rows, offset, window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("precompute refreshes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("precompute refreshes: %w", err)
	}
	return out, nil
}
