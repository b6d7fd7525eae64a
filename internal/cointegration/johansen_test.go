package cointegration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-trading-lab/internal/domain"
)

func TestJohansen_CointegratedPair(t *testing.T) {
	res, err := NewJohansen().Estimate(cointegratedRows(42, 252))
	require.NoError(t, err)

	assert.Greater(t, res.Vector.Eig1, 0.0)
	assert.InDelta(t, -2.0, res.Vector.Eig2/res.Vector.Eig1, 0.05)
	assert.Equal(t, 15.4943, res.CriticalValue95)
	assert.Greater(t, res.TraceStat, 90.0)
	assert.True(t, res.Passes())
	assert.Greater(t, res.Eigenvalue, 0.0)
	assert.Less(t, res.Eigenvalue, 1.0)
}

func TestJohansen_IndependentWalksFail(t *testing.T) {
	res, err := NewJohansen().Estimate(independentRows(3, 252))
	require.NoError(t, err)
	assert.False(t, res.Passes())
}

func TestJohansen_Deterministic(t *testing.T) {
	rows := cointegratedRows(42, 252)
	a, errA := NewJohansen().Estimate(rows)
	b, errB := NewJohansen().Estimate(rows)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestJohansen_WindowTooShort(t *testing.T) {
	_, err := NewJohansen().Estimate(cointegratedRows(1, 5))
	assert.ErrorIs(t, err, ErrWindowTooShort)
}

func TestJohansen_ConstantPricesAreSingular(t *testing.T) {
	rows := make([]domain.PairRow, 50)
	for i := range rows {
		rows[i] = domain.PairRow{TimestampMs: int64(i), PriceY: 10, PriceX: 20}
	}
	_, err := NewJohansen().Estimate(rows)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestJohansen_NonFinite(t *testing.T) {
	rows := cointegratedRows(42, 50)
	rows[10].PriceX = math.NaN()
	_, err := NewJohansen().Estimate(rows)
	assert.ErrorIs(t, err, ErrNonFinite)
}

// goldenWindow is a fixed 20-row (Y, X) window. Expected values follow
// statsmodels coint_johansen(det_order=0, k_ar_diff=1): evec[:, 0] scaled
// to v'Skk v = 1, eig[0], lr1[0] and cvt[0, 1].
var goldenWindow = [][2]float64{
	{102.91, 49.8}, {102.05, 49.62}, {100.63, 48.88}, {102.79, 49.77},
	{104.35, 50.6}, {104.95, 50.92}, {102.69, 49.59}, {103.3, 50.0},
	{99.25, 48.65}, {98.6, 47.94}, {99.33, 48.18}, {99.81, 48.6},
	{100.94, 48.85}, {100.67, 48.32}, {101.26, 48.77}, {99.1, 48.27},
	{98.92, 47.99}, {100.15, 48.5}, {98.71, 48.14}, {99.17, 47.72},
}

func TestJohansen_GoldenWindow(t *testing.T) {
	rows := make([]domain.PairRow, len(goldenWindow))
	for i, p := range goldenWindow {
		rows[i] = domain.PairRow{TimestampMs: int64(i), PriceY: p[0], PriceX: p[1]}
	}

	res, err := NewJohansen().Estimate(rows)
	require.NoError(t, err)

	// The sign of an eigenvector is arbitrary; Eig1 is kept non-negative.
	assert.InDelta(t, 2.995684736405, math.Abs(res.Vector.Eig1), 1e-6)
	assert.InDelta(t, -6.098666228197, res.Vector.Eig2*math.Copysign(1, res.Vector.Eig1), 1e-6)
	assert.GreaterOrEqual(t, res.Vector.Eig1, 0.0)
	assert.InDelta(t, -2.035817105212, res.Vector.Eig2/res.Vector.Eig1, 1e-8)

	assert.InDelta(t, 0.418019501742, res.Eigenvalue, 1e-9)
	assert.InDelta(t, 11.300247051458, res.TraceStat, 1e-6)
	assert.Equal(t, 15.4943, res.CriticalValue95)
	assert.False(t, res.Passes())
}
