// Package cointegration estimates co-integrating vectors for a price pair
// and screens candidate pairs.
package cointegration

import (
	"errors"

	"pairs-trading-lab/internal/domain"
)

// Estimation errors. The backtest treats all of them as a failed refresh.
var (
	ErrWindowTooShort = errors.New("window too short for estimation")
	ErrNonFinite      = errors.New("window contains non-finite prices")
	ErrSingular       = errors.New("singular moment matrix")
	ErrNoConvergence  = errors.New("eigen decomposition did not converge")
)

// Result is the output of one co-integration estimate.
type Result struct {
	Vector          domain.EigenVector // eigenvector of the largest eigenvalue
	Eigenvalue      float64            // largest eigenvalue
	TraceStat       float64            // trace statistic for r = 0
	CriticalValue95 float64            // 95% critical value for the r = 0 trace test
}

// Passes reports whether the trace statistic rejects "no co-integration" at 95%.
func (r Result) Passes() bool {
	return r.TraceStat > r.CriticalValue95
}

// Estimator computes a co-integrating vector from a window of pair rows.
// Implementations must be safe for concurrent use.
type Estimator interface {
	Estimate(rows []domain.PairRow) (Result, error)
}
