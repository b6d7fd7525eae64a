package cointegration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelation_PerfectlyLinear(t *testing.T) {
	a := []float64{1, 3, 2, 5, 4, 6, 8, 7}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = 3*v + 1
	}
	assert.InDelta(t, 1.0, Correlation(a, b, 4), 1e-12)
}

func TestCorrelation_Anti(t *testing.T) {
	a := []float64{1, 3, 2, 5, 4, 6}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = -v
	}
	assert.InDelta(t, -1.0, Correlation(a, b, 3), 1e-12)
}

func TestCorrelation_SkipsFlatWindows(t *testing.T) {
	a := []float64{1, 1, 1, 2, 3}
	b := []float64{5, 6, 7, 8, 9}
	// Window [1,1,1] is flat; the other two correlate perfectly or partially.
	got := Correlation(a, b, 3)
	assert.False(t, math.IsNaN(got))
}

func TestCorrelation_NotEnoughData(t *testing.T) {
	assert.True(t, math.IsNaN(Correlation([]float64{1, 2}, []float64{1, 2}, 3)))
	assert.True(t, math.IsNaN(Correlation([]float64{1, 1, 1}, []float64{1, 2, 3}, 3)))
}
