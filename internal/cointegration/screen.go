package cointegration

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"pairs-trading-lab/internal/domain"
)

// ScreenConfig holds pair screening thresholds.
type ScreenConfig struct {
	CorrelationWindow int     `yaml:"correlation_window"`
	MinCorrelation    float64 `yaml:"min_correlation"` // strict lower bound
	ADFLags           int     `yaml:"adf_lags"`
	Workers           int     `yaml:"workers"`
}

// DefaultScreenConfig holds the default screening thresholds.
var DefaultScreenConfig = ScreenConfig{
	CorrelationWindow: 252,
	MinCorrelation:    0.60,
	ADFLags:           1,
	Workers:           4,
}

// Candidate is one pair offered for screening.
type Candidate struct {
	Sector string
	Series domain.PairSeries
}

// ScreenResult holds every test outcome for one candidate.
type ScreenResult struct {
	Sector      string
	PairID      string
	TickerY     string
	TickerX     string
	Correlation float64
	ADF         ADFResult
	HedgeSlope  float64 // OLS slope of Y on X
	HalfLife    float64 // of the OLS residual, 0 when it does not mean-revert
	Johansen    Result
	Strength    float64 // trace / cv95
	Err         error   // estimation failure, the pair never passes
}

// Passes reports whether the pair clears every filter.
func (r ScreenResult) Passes(cfg ScreenConfig) bool {
	return r.Err == nil &&
		r.Correlation > cfg.MinCorrelation &&
		r.ADF.Stationary() &&
		r.Johansen.Passes()
}

// Pairs returns every unordered pair of tickers, first ticker as Y.
func Pairs(tickers []string) [][2]string {
	var out [][2]string
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			out = append(out, [2]string{tickers[i], tickers[j]})
		}
	}
	return out
}

// Screen tests every candidate and returns all results and the passing
// subset sorted by Strength descending (ties by PairID).
func Screen(ctx context.Context, est Estimator, candidates []Candidate, cfg ScreenConfig) ([]ScreenResult, []ScreenResult, error) {
	all := make([]ScreenResult, len(candidates))

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			all[i] = screenOne(est, c, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("screen pairs: %w", err)
	}

	var passing []ScreenResult
	for _, r := range all {
		if r.Passes(cfg) {
			passing = append(passing, r)
		}
	}
	sort.SliceStable(passing, func(i, j int) bool {
		if passing[i].Strength != passing[j].Strength {
			return passing[i].Strength > passing[j].Strength
		}
		return passing[i].PairID < passing[j].PairID
	})
	return all, passing, nil
}

func screenOne(est Estimator, c Candidate, cfg ScreenConfig) ScreenResult {
	s := c.Series
	res := ScreenResult{
		Sector:  c.Sector,
		PairID:  s.PairID,
		TickerY: s.TickerY,
		TickerX: s.TickerX,
	}

	y := make([]float64, len(s.Rows))
	x := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		y[i], x[i] = r.PriceY, r.PriceX
	}

	res.Correlation = Correlation(y, x, cfg.CorrelationWindow)
	if math.IsNaN(res.Correlation) {
		res.Correlation = 0
	}

	resid, adf, slope, err := OLSADF(y, x, cfg.ADFLags)
	if err != nil {
		res.Err = fmt.Errorf("ols adf: %w", err)
		return res
	}
	res.ADF = adf
	res.HedgeSlope = slope
	if hl, err := HalfLife(resid); err == nil {
		res.HalfLife = hl
	}

	jr, err := est.Estimate(s.Rows)
	if err != nil {
		res.Err = fmt.Errorf("johansen: %w", err)
		return res
	}
	res.Johansen = jr
	if jr.CriticalValue95 > 0 {
		res.Strength = jr.TraceStat / jr.CriticalValue95
	}
	return res
}
