package cointegration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"pairs-trading-lab/internal/domain"
)

// minJohansenRows is the shortest window the estimator accepts.
const minJohansenRows = 10

// Trace-test critical values (90%, 95%, 99%) with a constant term,
// indexed by the number of non-co-integrated relations under test.
var johansenTraceCritical = [2][3]float64{
	{2.7055, 3.8415, 6.6349},    // one
	{13.4294, 15.4943, 19.9349}, // two
}

// Johansen runs the Johansen trace test on two price series with a
// constant term and one lagged difference.
// The returned vector satisfies v' Skk v = 1 and is oriented with Eig1 >= 0.
type Johansen struct{}

// NewJohansen creates a Johansen estimator.
func NewJohansen() *Johansen {
	return &Johansen{}
}

// Estimate implements Estimator.
func (j *Johansen) Estimate(rows []domain.PairRow) (Result, error) {
	t := len(rows)
	if t < minJohansenRows {
		return Result{}, fmt.Errorf("%w: have %d rows, need %d", ErrWindowTooShort, t, minJohansenRows)
	}

	levels := mat.NewDense(t, 2, nil)
	for i, r := range rows {
		if !finite(r.PriceY) || !finite(r.PriceX) {
			return Result{}, fmt.Errorf("%w: row %d", ErrNonFinite, i)
		}
		levels.Set(i, 0, r.PriceY)
		levels.Set(i, 1, r.PriceX)
	}
	demean(levels)

	// Δx_t on Δx_{t-1}, and x_{t-1} on Δx_{t-1}.
	n := t - 2
	delta := mat.NewDense(n, 2, nil)
	lagDelta := mat.NewDense(n, 2, nil)
	lagLevel := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < 2; c++ {
			delta.Set(i, c, levels.At(i+2, c)-levels.At(i+1, c))
			lagDelta.Set(i, c, levels.At(i+1, c)-levels.At(i, c))
			lagLevel.Set(i, c, levels.At(i+1, c))
		}
	}
	demean(delta)
	demean(lagDelta)
	demean(lagLevel)

	r0, err := residuals(delta, lagDelta)
	if err != nil {
		return Result{}, err
	}
	rk, err := residuals(lagLevel, lagDelta)
	if err != nil {
		return Result{}, err
	}

	skk := moment(rk, rk, n)
	sk0 := moment(rk, r0, n)
	s00 := moment(r0, r0, n)

	// Solve |λ Skk - Sk0 S00^-1 S0k| = 0 through the Cholesky factor of Skk.
	var chol mat.Cholesky
	if ok := chol.Factorize(symmetric(skk)); !ok {
		return Result{}, fmt.Errorf("%w: Skk not positive definite", ErrSingular)
	}
	var s00inv mat.Dense
	if err := s00inv.Inverse(s00); err != nil {
		return Result{}, fmt.Errorf("%w: S00: %v", ErrSingular, err)
	}
	var sigma mat.Dense
	sigma.Product(sk0, &s00inv, sk0.T())

	var lower, lowerInv mat.TriDense
	chol.LTo(&lower)
	if err := lowerInv.InverseTri(&lower); err != nil {
		return Result{}, fmt.Errorf("%w: Cholesky factor: %v", ErrSingular, err)
	}
	var reduced mat.Dense
	reduced.Product(&lowerInv, &sigma, lowerInv.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(symmetric(&reduced), true); !ok {
		return Result{}, ErrNoConvergence
	}
	values := eig.Values(nil) // ascending
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	trace := 0.0
	for i, lambda := range values {
		if math.IsNaN(lambda) || lambda >= 1 {
			return Result{}, fmt.Errorf("%w: eigenvalue %d is %v", ErrSingular, i, lambda)
		}
		if lambda < 0 {
			lambda = 0
		}
		trace += math.Log(1 - lambda)
	}
	trace *= -float64(n)

	largest := len(values) - 1
	var v mat.VecDense
	v.MulVec(lowerInv.T(), vectors.ColView(largest))
	eig1, eig2 := v.AtVec(0), v.AtVec(1)
	if eig1 < 0 {
		eig1, eig2 = -eig1, -eig2
	}

	return Result{
		Vector:          domain.EigenVector{Eig1: eig1, Eig2: eig2},
		Eigenvalue:      values[largest],
		TraceStat:       trace,
		CriticalValue95: johansenTraceCritical[1][1],
	}, nil
}

// residuals regresses each column of y on x by least squares and returns y - x·β.
func residuals(y, x *mat.Dense) (*mat.Dense, error) {
	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	var fitted mat.Dense
	fitted.Mul(x, &beta)

	r, c := y.Dims()
	res := mat.NewDense(r, c, nil)
	res.Sub(y, &fitted)
	return res, nil
}

// moment returns a'b / n.
func moment(a, b *mat.Dense, n int) *mat.Dense {
	var m mat.Dense
	m.Mul(a.T(), b)
	m.Scale(1/float64(n), &m)
	return &m
}

// demean subtracts each column's mean in place.
func demean(m *mat.Dense) {
	r, c := m.Dims()
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += m.At(i, j)
		}
		mean := sum / float64(r)
		for i := 0; i < r; i++ {
			m.Set(i, j, m.At(i, j)-mean)
		}
	}
}

// symmetric averages m with its transpose.
func symmetric(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
