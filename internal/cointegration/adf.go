package cointegration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ADFResult holds an augmented Dickey-Fuller test with a constant term.
type ADFResult struct {
	Statistic  float64 // t-statistic of the lagged level coefficient
	Lags       int
	NObs       int
	Critical1  float64
	Critical5  float64
	Critical10 float64
}

// Stationary reports whether a unit root is rejected at 5%.
func (r ADFResult) Stationary() bool {
	return r.Statistic < r.Critical5
}

// ADF regresses Δy_t on [1, y_{t-1}, Δy_{t-1}, ..., Δy_{t-lags}].
// Critical values follow MacKinnon's response surface for the constant-only case.
func ADF(series []float64, lags int) (ADFResult, error) {
	if lags < 0 {
		lags = 0
	}
	nobs := len(series) - 1 - lags
	k := 2 + lags
	if nobs <= k+1 {
		return ADFResult{}, fmt.Errorf("%w: %d observations for %d regressors", ErrWindowTooShort, nobs, k)
	}
	for i, v := range series {
		if !finite(v) {
			return ADFResult{}, fmt.Errorf("%w: value %d", ErrNonFinite, i)
		}
	}

	x := mat.NewDense(nobs, k, nil)
	y := mat.NewVecDense(nobs, nil)
	for i := 0; i < nobs; i++ {
		t := i + 1 + lags
		y.SetVec(i, series[t]-series[t-1])
		x.Set(i, 0, 1)
		x.Set(i, 1, series[t-1])
		for l := 1; l <= lags; l++ {
			x.Set(i, 1+l, series[t-l]-series[t-l-1])
		}
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return ADFResult{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(y, &fitted)
	sigma2 := mat.Dot(&resid, &resid) / float64(nobs-k)

	var xtx, xtxInv mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return ADFResult{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	se := math.Sqrt(sigma2 * xtxInv.At(1, 1))
	if se == 0 || math.IsNaN(se) {
		return ADFResult{}, fmt.Errorf("%w: zero standard error", ErrSingular)
	}

	n := float64(nobs)
	return ADFResult{
		Statistic:  beta.AtVec(1) / se,
		Lags:       lags,
		NObs:       nobs,
		Critical1:  -3.4336 - 5.999/n - 29.25/(n*n),
		Critical5:  -2.8621 - 2.738/n - 8.36/(n*n),
		Critical10: -2.5671 - 1.438/n - 4.48/(n*n),
	}, nil
}

// OLSADF regresses y on x with an intercept and runs ADF on the residuals.
// Returns the residuals, the test result and the fitted slope.
func OLSADF(y, x []float64, lags int) ([]float64, ADFResult, float64, error) {
	if len(y) != len(x) {
		return nil, ADFResult{}, 0, fmt.Errorf("series length mismatch: %d vs %d", len(y), len(x))
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	resid := make([]float64, len(y))
	for i := range y {
		resid[i] = y[i] - (alpha + beta*x[i])
	}
	res, err := ADF(resid, lags)
	if err != nil {
		return nil, ADFResult{}, 0, err
	}
	return resid, res, beta, nil
}

// HalfLife estimates the mean-reversion half-life of series in bars
// from Δs_t = a + b*s_{t-1}. Returns an error when b >= 0.
func HalfLife(series []float64) (float64, error) {
	if len(series) < 3 {
		return 0, fmt.Errorf("%w: %d values", ErrWindowTooShort, len(series))
	}
	lagged := series[:len(series)-1]
	changes := make([]float64, len(lagged))
	for i := range lagged {
		changes[i] = series[i+1] - series[i]
	}
	_, b := stat.LinearRegression(lagged, changes, nil, false)
	if b >= 0 || math.IsNaN(b) {
		return 0, fmt.Errorf("series does not mean-revert (slope %v)", b)
	}
	return math.Log(2) / -b, nil
}
