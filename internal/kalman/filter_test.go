package kalman

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"pairs-trading-lab/internal/domain"
)

var testCfg = domain.FilterConfig{Q: 0.01, R: 0.0001, P0: 0.1}

func TestFilter_HedgeConvergesToLinearModel(t *testing.T) {
	f := New(testCfg)

	for i := 0; i < 500; i++ {
		x := 5 + 4*math.Sin(0.37*float64(i))
		noise := 1e-4 * math.Sin(1.3*float64(i)+0.5)
		f.UpdateHedge(x, 2+3*x+noise)
	}

	w0, w1 := f.Params()
	assert.InDelta(t, 2.0, w0, 0.05)
	assert.InDelta(t, 3.0, w1, 0.05)
}

func TestFilter_LoadingTracksTarget(t *testing.T) {
	f := New(testCfg)

	for i := 0; i < 300; i++ {
		x1 := 100 + 10*math.Sin(0.11*float64(i))
		x2 := 50 + 5*math.Cos(0.07*float64(i))
		target := 0.8*x1 - 1.6*x2
		w0, w1 := f.UpdateLoading(x1, x2, target)
		if i > 50 {
			assert.InDelta(t, target, w0*x1+w1*x2, 1e-3, "step %d", i)
		}
	}
}

func TestFilter_CovarianceStaysSymmetricPSD(t *testing.T) {
	f := New(testCfg)

	for i := 0; i < 1000; i++ {
		x := 20 + 15*math.Sin(0.05*float64(i))
		f.UpdateHedge(x, 1.5*x+0.3*math.Cos(0.9*float64(i)))

		p := f.Covariance()
		require.Equal(t, p.At(0, 1), p.At(1, 0), "step %d", i)

		var eig mat.EigenSym
		ok := eig.Factorize(mat.NewSymDense(2, []float64{p.At(0, 0), p.At(0, 1), p.At(1, 0), p.At(1, 1)}), false)
		require.True(t, ok)
		for _, v := range eig.Values(nil) {
			require.GreaterOrEqual(t, v, -1e-12, "step %d", i)
		}
	}
}

func TestFilter_InstancesDoNotShareState(t *testing.T) {
	a := New(testCfg)
	b := New(domain.FilterConfig{Q: 0.5, R: 1, P0: 1})

	a.UpdateHedge(10, 25)

	w0, w1 := b.Params()
	assert.Zero(t, w0)
	assert.Zero(t, w1)

	a0, a1 := a.Params()
	assert.NotZero(t, a0)
	assert.NotZero(t, a1)
}

func TestFilter_Deterministic(t *testing.T) {
	run := func() (float64, float64) {
		f := New(testCfg)
		for i := 0; i < 200; i++ {
			x := 30 + math.Sin(float64(i))
			f.UpdateHedge(x, 4+0.5*x)
		}
		return f.Params()
	}

	a0, a1 := run()
	b0, b1 := run()
	assert.Equal(t, a0, b0)
	assert.Equal(t, a1, b1)
}
