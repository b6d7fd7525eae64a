// Package signal turns the filtered spread into a rolling z-score.
package signal

import "math"

// ZScore is a normalized signal that may be undefined.
// Every threshold test on an undefined ZScore returns false.
type ZScore struct {
	value   float64
	defined bool
}

// Undefined is the "no value" ZScore.
var Undefined = ZScore{}

// Defined wraps a computed z-score.
func Defined(v float64) ZScore {
	return ZScore{value: v, defined: true}
}

// Value returns the z-score and whether it is defined.
func (z ZScore) Value() (float64, bool) {
	return z.value, z.defined
}

// IsDefined reports whether the z-score holds a value.
func (z ZScore) IsDefined() bool {
	return z.defined
}

// Above reports z > threshold.
func (z ZScore) Above(threshold float64) bool {
	return z.defined && z.value > threshold
}

// Below reports z < threshold.
func (z ZScore) Below(threshold float64) bool {
	return z.defined && z.value < threshold
}

// WithinBand reports |z| < band.
func (z ZScore) WithinBand(band float64) bool {
	return z.defined && math.Abs(z.value) < band
}

// Float64 returns the value, or NaN when undefined. Intended for rendering only.
func (z ZScore) Float64() float64 {
	if !z.defined {
		return math.NaN()
	}
	return z.value
}
