// Package kalman estimates two-parameter linear models with a Kalman recursion.
package kalman

import (
	"gonum.org/v1/gonum/mat"

	"pairs-trading-lab/internal/domain"
)

// Filter tracks w = (w0, w1) from one scalar observation per step.
// The state transition is the identity; process noise Q = q*I is added to P
// on every update before the correction.
type Filter struct {
	w *mat.VecDense // parameter estimate
	p *mat.Dense    // error covariance
	q *mat.Dense    // process noise
	r float64       // observation noise
}

// New creates a filter with w = 0 and P = p0*I.
func New(cfg domain.FilterConfig) *Filter {
	return &Filter{
		w: mat.NewVecDense(2, nil),
		p: mat.NewDense(2, 2, []float64{cfg.P0, 0, 0, cfg.P0}),
		q: mat.NewDense(2, 2, []float64{cfg.Q, 0, 0, cfg.Q}),
		r: cfg.R,
	}
}

// UpdateHedge regresses y on x with observation row C = [1, x].
// Returns (intercept, slope); the slope is the hedge ratio.
func (f *Filter) UpdateHedge(x, y float64) (float64, float64) {
	return f.update(1, x, y)
}

// UpdateLoading fits target ≈ w0*x1 + w1*x2 with observation row C = [x1, x2].
func (f *Filter) UpdateLoading(x1, x2, target float64) (float64, float64) {
	return f.update(x1, x2, target)
}

// Params returns the current estimate.
func (f *Filter) Params() (float64, float64) {
	return f.w.AtVec(0), f.w.AtVec(1)
}

// Covariance returns a copy of P.
func (f *Filter) Covariance() *mat.Dense {
	return mat.DenseCopyOf(f.p)
}

func (f *Filter) update(c0, c1, target float64) (float64, float64) {
	// Predict: P = A P A' + Q with A = I.
	f.p.Add(f.p, f.q)

	c := mat.NewVecDense(2, []float64{c0, c1})

	var pc mat.VecDense
	pc.MulVec(f.p, c)
	s := mat.Dot(c, &pc) + f.r

	var k mat.VecDense
	k.ScaleVec(1/s, &pc)

	predicted := mat.Dot(c, f.w)

	// P = (I - K C) P
	var kc mat.Dense
	kc.Outer(1, &k, c)
	ikc := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	ikc.Sub(ikc, &kc)

	var next mat.Dense
	next.Mul(ikc, f.p)

	// Keep P symmetric against rounding.
	off := (next.At(0, 1) + next.At(1, 0)) / 2
	f.p.Set(0, 0, next.At(0, 0))
	f.p.Set(0, 1, off)
	f.p.Set(1, 0, off)
	f.p.Set(1, 1, next.At(1, 1))

	f.w.AddScaledVec(f.w, target-predicted, &k)

	return f.Params()
}
