package signal

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// flatTolerance treats a window whose std is below this fraction of its
// scale as having zero variance.
const flatTolerance = 1e-12

// Normalizer keeps a trailing window of spread values.
type Normalizer struct {
	window int
	values []float64
}

// NewNormalizer creates a normalizer over the last window values.
func NewNormalizer(window int) *Normalizer {
	return &Normalizer{
		window: window,
		values: make([]float64, 0, window),
	}
}

// Push appends v and returns its z-score against the window including v.
// Undefined until the window is full, and for a flat window.
func (n *Normalizer) Push(v float64) ZScore {
	if len(n.values) == n.window {
		copy(n.values, n.values[1:])
		n.values = n.values[:n.window-1]
	}
	n.values = append(n.values, v)

	if len(n.values) < n.window {
		return Undefined
	}

	mean, std := stat.PopMeanStdDev(n.values, nil)
	if isFlat(n.values, mean, std) {
		return Undefined
	}
	return Defined((v - mean) / std)
}

// Len returns the number of values held.
func (n *Normalizer) Len() int {
	return len(n.values)
}

func isFlat(values []float64, mean, std float64) bool {
	if std == 0 || math.IsNaN(std) {
		return true
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return true
	}
	return std <= flatTolerance*math.Max(1, math.Abs(mean))
}
