package backtest

import (
	"math"

	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/domain"
)

const (
	testWarmUp     = 100
	testNormWindow = 150
	baseTimeMs     = int64(1704067200000)
	dayMs          = int64(86_400_000)
)

func testConfig() domain.BacktestConfig {
	cfg := domain.DefaultBacktestConfig
	cfg.WarmUp = testWarmUp
	cfg.NormWindow = testNormWindow
	return cfg
}

// scenarioSeries builds Y = X + s where s alternates ±1 until the first
// z-score, then holds each value at the mean of the preceding window so the
// z-score stays near zero, except for s = 5 on rows [spikeFrom, spikeTo).
// X drifts down by 4 over the 20 rows after spikeFrom.
func scenarioSeries(n, spikeFrom, spikeTo int) domain.PairSeries {
	firstZ := testWarmUp + testNormWindow - 1
	s := make([]float64, n)
	for i := testWarmUp; i < firstZ && i < n; i++ {
		if (i-testWarmUp)%2 == 0 {
			s[i] = 1
		} else {
			s[i] = -1
		}
	}
	for i := firstZ; i < n; i++ {
		if i >= spikeFrom && i < spikeTo {
			s[i] = 5
			continue
		}
		sum := 0.0
		for _, v := range s[i-(testNormWindow-1) : i] {
			sum += v
		}
		s[i] = sum / float64(testNormWindow-1)
	}

	rows := make([]domain.PairRow, n)
	for i := range rows {
		x := scenarioX(i)
		rows[i] = domain.PairRow{
			TimestampMs: baseTimeMs + int64(i)*dayMs,
			PriceY:      x + s[i],
			PriceX:      x,
		}
	}
	return domain.PairSeries{PairID: "YYY-XXX", TickerY: "YYY", TickerX: "XXX", Rows: rows}
}

func scenarioX(i int) float64 {
	drop := 0.2 * math.Min(math.Max(float64(i-300), 0), 20)
	return 50 + 3*math.Sin(float64(i)/25) - drop
}

// failingEstimator never produces a vector.
type failingEstimator struct{}

func (failingEstimator) Estimate([]domain.PairRow) (cointegration.Result, error) {
	return cointegration.Result{}, cointegration.ErrNoConvergence
}

// scriptedEstimator fails on offsets divisible by 3 and otherwise returns a
// vector tagged with the offset.
type scriptedEstimator struct{}

func (scriptedEstimator) Estimate(rows []domain.PairRow) (cointegration.Result, error) {
	offset := windowOffset(rows)
	if offset%3 == 0 {
		return cointegration.Result{}, cointegration.ErrSingular
	}
	return cointegration.Result{Vector: scriptedVector(offset)}, nil
}

func scriptedVector(offset int) domain.EigenVector {
	return domain.EigenVector{Eig1: 1, Eig2: -1 - float64(offset)*1e-9}
}

// windowOffset recovers the exclusive end offset of a window.
func windowOffset(rows []domain.PairRow) int {
	last := rows[len(rows)-1].TimestampMs
	return int((last-baseTimeMs)/dayMs) + 1
}

// openAt returns the legs held when row i was valued.
func openAt(trades []domain.Position, i int) []domain.Position {
	var out []domain.Position
	for _, pos := range trades {
		if pos.EntryIndex > i {
			continue
		}
		if pos.Open || i < pos.ExitIndex || pos.ExitReason == domain.ExitLiquidation {
			out = append(out, pos)
		}
	}
	return out
}
