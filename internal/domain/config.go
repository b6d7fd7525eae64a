package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a BacktestConfig fails validation.
var ErrInvalidConfig = errors.New("invalid backtest config")

// BorrowAccrual selects when short borrow cost is charged.
type BorrowAccrual string

// Borrow accrual modes
const (
	// BorrowOnClose charges one bar of borrow on the bar the exit fires,
	// before the shorts are closed.
	BorrowOnClose BorrowAccrual = "on_close"
	// BorrowDaily charges one bar of borrow on every bar a short is held
	// after its entry bar, the closing bar included.
	BorrowDaily BorrowAccrual = "daily"
)

// FilterConfig holds Kalman filter hyperparameters.
type FilterConfig struct {
	Q  float64 `yaml:"q"`  // process noise, Q = q*I
	R  float64 `yaml:"r"`  // observation noise
	P0 float64 `yaml:"p0"` // initial error covariance, P = p0*I
}

// BacktestConfig represents pairs backtest parameters.
type BacktestConfig struct {
	InitialCash float64 `yaml:"initial_cash"`

	// Signal
	Theta    float64 `yaml:"theta"`     // entry threshold on |z|
	ExitBand float64 `yaml:"exit_band"` // exit when |z| < band

	// Costs
	CommissionRate float64       `yaml:"commission_rate"` // per leg per side
	BorrowRate     float64       `yaml:"borrow_rate"`     // per bar, on short notional
	BorrowAccrual  BorrowAccrual `yaml:"borrow_accrual"`

	// Sizing
	AllocationPct float64 `yaml:"allocation_pct"` // share of cash budgeted for the Y leg
	LotSize       int64   `yaml:"lot_size"`       // accepted by valuation, not applied to sizing

	// Windows (rows)
	WarmUp             int `yaml:"warm_up"`
	NormWindow         int `yaml:"norm_window"`
	ReestimationWindow int `yaml:"reestimation_window"`

	HedgeFilter   FilterConfig `yaml:"hedge_filter"`
	LoadingFilter FilterConfig `yaml:"loading_filter"`

	// ReestimationWorkers > 0 precomputes Johansen refreshes on a worker pool.
	ReestimationWorkers int `yaml:"reestimation_workers"`
}

// DefaultBacktestConfig holds the baseline run parameters.
var DefaultBacktestConfig = BacktestConfig{
	InitialCash:        1_000_000,
	Theta:              0.33,
	ExitBand:           0.05,
	CommissionRate:     0.125 / 100,
	BorrowRate:         (0.25 / 100) / 252,
	BorrowAccrual:      BorrowOnClose,
	AllocationPct:      0.40,
	LotSize:            100,
	WarmUp:             252,
	NormWindow:         252,
	ReestimationWindow: 252,
	HedgeFilter:        FilterConfig{Q: 0.01, R: 0.0001, P0: 0.1},
	LoadingFilter:      FilterConfig{Q: 0.01, R: 0.0001, P0: 0.1},
}

// Validate checks parameter ranges.
func (c *BacktestConfig) Validate() error {
	if c.InitialCash <= 0 {
		return fmt.Errorf("%w: initial_cash must be positive", ErrInvalidConfig)
	}
	if c.Theta <= 0 {
		return fmt.Errorf("%w: theta must be positive", ErrInvalidConfig)
	}
	if c.ExitBand <= 0 {
		return fmt.Errorf("%w: exit_band must be positive", ErrInvalidConfig)
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("%w: commission_rate must be in [0, 1)", ErrInvalidConfig)
	}
	if c.BorrowRate < 0 {
		return fmt.Errorf("%w: borrow_rate must be non-negative", ErrInvalidConfig)
	}
	switch c.BorrowAccrual {
	case BorrowOnClose, BorrowDaily:
	default:
		return fmt.Errorf("%w: borrow_accrual must be %q or %q", ErrInvalidConfig, BorrowOnClose, BorrowDaily)
	}
	if c.AllocationPct <= 0 || c.AllocationPct > 1 {
		return fmt.Errorf("%w: allocation_pct must be in (0, 1]", ErrInvalidConfig)
	}
	if c.WarmUp <= 0 || c.NormWindow <= 0 || c.ReestimationWindow <= 0 {
		return fmt.Errorf("%w: windows must be positive", ErrInvalidConfig)
	}
	if err := c.HedgeFilter.validate("hedge_filter"); err != nil {
		return err
	}
	if err := c.LoadingFilter.validate("loading_filter"); err != nil {
		return err
	}
	if c.ReestimationWorkers < 0 {
		return fmt.Errorf("%w: reestimation_workers must be non-negative", ErrInvalidConfig)
	}
	return nil
}

func (f FilterConfig) validate(name string) error {
	if f.Q < 0 || f.R <= 0 || f.P0 < 0 {
		return fmt.Errorf("%w: %s requires q >= 0, r > 0, p0 >= 0", ErrInvalidConfig, name)
	}
	return nil
}
