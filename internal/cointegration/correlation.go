package cointegration

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Correlation returns the mean of the rolling Pearson correlation of a and b
// over windows of the given length. Windows where either side has no
// variance are skipped. Returns NaN when no window qualifies.
func Correlation(a, b []float64, window int) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if window < 2 || n < window {
		return math.NaN()
	}

	sum, count := 0.0, 0
	for end := window; end <= n; end++ {
		c := stat.Correlation(a[end-window:end], b[end-window:end], nil)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		sum += c
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
