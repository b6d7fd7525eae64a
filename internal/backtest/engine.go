// Package backtest runs the pairs-trading fold over an aligned price series.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/kalman"
	"pairs-trading-lab/internal/ledger"
	"pairs-trading-lab/internal/metrics"
	"pairs-trading-lab/internal/observability"
	"pairs-trading-lab/internal/signal"
)

// Engine errors
var (
	ErrSeriesTooShort = errors.New("series shorter than warm-up")
	ErrInvalidSeries  = errors.New("invalid price series")
)

// Engine runs one pair backtest. An Engine holds no per-run state and may
// be reused; each Run starts from fresh filters and a fresh ledger.
type Engine struct {
	cfg     domain.BacktestConfig
	est     cointegration.Estimator
	initial domain.EigenVector
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine. est may be nil, in which case the initial
// vector is used for the whole run.
func NewEngine(cfg domain.BacktestConfig, est cointegration.Estimator, initial domain.EigenVector, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		est:     est,
		initial: initial,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run folds every row of series in order and returns the run output.
// Steps per row at or after warm-up:
//  1. Hedge filter update on (x, y)
//  2. Vector refresh from rows[offset-window : offset], keeping the
//     previous vector on failure
//  3. Raw spread from the vector, loading filter update, filtered spread
//  4. Z-score of the filtered spread
//  5. Entry rules, then exit rule, against the same z-score
//  6. Portfolio valuation
func (e *Engine) Run(ctx context.Context, series domain.PairSeries) (*Result, error) {
	start := time.Now()
	res, err := e.run(ctx, series)
	if err != nil {
		e.metrics.RecordRun("error", time.Since(start).Seconds())
		return nil, err
	}
	e.metrics.RecordRun("success", time.Since(start).Seconds())
	e.metrics.RecordRows(series.Len())
	e.metrics.RecordOutcome(series.PairID, res.FinalValue(), res.RealizedPnL())
	return res, nil
}

func (e *Engine) run(ctx context.Context, series domain.PairSeries) (*Result, error) {
	if err := e.validateSeries(series); err != nil {
		return nil, err
	}
	cfg := e.cfg
	rows := series.Rows
	log := e.logger.With(zap.String("pair", series.PairID))

	refreshFrom := max(cfg.WarmUp, cfg.ReestimationWindow)
	var refreshes []cointegration.Refresh
	if e.est != nil && cfg.ReestimationWorkers > 0 {
		var err error
		refreshes, err = cointegration.Precompute(ctx, e.est, rows, refreshFrom, cfg.ReestimationWindow, cfg.ReestimationWorkers)
		if err != nil {
			return nil, err
		}
	}

	hedge := kalman.New(cfg.HedgeFilter)
	loading := kalman.New(cfg.LoadingFilter)
	norm := signal.NewNormalizer(cfg.NormWindow)
	led := ledger.New(cfg, series.PairID, series.TickerY, series.TickerX)
	vector := e.initial

	res := &Result{
		PairID:          series.PairID,
		TickerY:         series.TickerY,
		TickerX:         series.TickerX,
		InitialVector:   e.initial,
		PortfolioValues: make([]float64, 0, len(rows)),
		CashValues:      make([]float64, 0, len(rows)),
		Diagnostics:     make([]StepDiagnostic, 0, max(len(rows)-cfg.WarmUp, 0)),
	}

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := series.Quote(i)

		if i < cfg.WarmUp {
			res.PortfolioValues = append(res.PortfolioValues, led.Value(q))
			res.CashValues = append(res.CashValues, led.Cash())
			continue
		}

		// 1. Hedge ratio
		w0, hedgeRatio := hedge.UpdateHedge(q.PriceX, q.PriceY)

		// 2. Vector refresh
		refreshed := false
		if e.est != nil && i >= refreshFrom {
			var r cointegration.Refresh
			if refreshes != nil {
				r = refreshes[i-refreshFrom]
			} else {
				r = cointegration.Reestimate(e.est, rows, i, cfg.ReestimationWindow)
			}
			if r.OK() {
				vector = r.Result.Vector
				refreshed = true
			} else {
				res.RefreshFailures++
				e.metrics.RecordRefreshFailure()
				log.Debug("vector refresh failed, keeping previous vector",
					zap.Int("offset", i),
					zap.Error(r.Err),
				)
			}
		}

		// 3. Spread
		spread := vector.Combine(q.PriceY, q.PriceX)
		l1, l2 := loading.UpdateLoading(q.PriceY, q.PriceX, spread)
		filtered := l1*q.PriceY + l2*q.PriceX

		// 4. Z-score
		z := norm.Push(filtered)

		// 5. Signals
		led.AccrueBorrow(q)
		if led.IsFlat() {
			var opened []domain.Position
			switch {
			case z.Above(cfg.Theta):
				opened = led.OpenLongY(q, hedgeRatio)
			case z.Below(-cfg.Theta):
				opened = led.OpenShortY(q, hedgeRatio)
			}
			for _, pos := range opened {
				e.metrics.RecordLegOpened(string(pos.Side))
				log.Info("leg opened",
					zap.Int("offset", i),
					zap.String("ticker", pos.Ticker),
					zap.String("side", string(pos.Side)),
					zap.Int64("shares", pos.Shares),
					zap.Float64("price", pos.EntryPrice),
					zap.Float64("z", z.Float64()),
				)
			}
		}
		if z.WithinBand(cfg.ExitBand) && !led.IsFlat() {
			closed := led.Close(q)
			e.metrics.RecordLegsClosed("exit", len(closed))
			for _, pos := range closed {
				log.Info("leg closed",
					zap.Int("offset", i),
					zap.String("ticker", pos.Ticker),
					zap.String("side", string(pos.Side)),
					zap.Float64("price", pos.ExitPrice),
					zap.Float64("pnl", pos.RealizedPnL),
				)
			}
		}

		// 6. Valuation
		res.Diagnostics = append(res.Diagnostics, StepDiagnostic{
			Offset:         i,
			TimestampMs:    q.TimestampMs,
			PriceX:         q.PriceX,
			PredictedX:     w0 + hedgeRatio*q.PriceY,
			HedgeRatio:     hedgeRatio,
			Vector:         vector,
			Refreshed:      refreshed,
			Spread:         spread,
			Eig1Hat:        l1,
			Eig2Hat:        l2,
			FilteredSpread: filtered,
			ZScore:         z,
		})
		res.PortfolioValues = append(res.PortfolioValues, led.Value(q))
		res.CashValues = append(res.CashValues, led.Cash())
	}

	last := series.Quote(len(rows) - 1)
	liquidated := led.Liquidate(last)
	e.metrics.RecordLegsClosed("liquidation", len(liquidated))
	if len(liquidated) > 0 {
		log.Info("open legs liquidated at end of series", zap.Int("legs", len(liquidated)))
	}

	res.FinalCash = led.Cash()
	res.BorrowCost = led.BorrowCost()
	res.CommissionCost = led.CommissionCost()
	res.EntryCommissionCost = led.EntryCommissionCost()
	res.Trades = led.Trades()
	res.PnL = led.RealizedPnL()
	res.Stats = metrics.ComputeTradeStats(res.PnL)
	res.Summary = metrics.Summarize(res.PortfolioValues, metrics.TradingDaysPerYear)

	log.Info("backtest complete",
		zap.Int("rows", len(rows)),
		zap.Int("trades", res.Stats.TotalTrades),
		zap.Int("refresh_failures", res.RefreshFailures),
		zap.Float64("final_cash", res.FinalCash),
	)
	return res, nil
}

// validateSeries rejects series without two distinct tickers, series that
// can never produce a signal, and series that break the dense, increasing
// row contract.
func (e *Engine) validateSeries(series domain.PairSeries) error {
	if series.TickerY == "" || series.TickerX == "" {
		return fmt.Errorf("%w: both tickers are required, got %q and %q", ErrInvalidSeries, series.TickerY, series.TickerX)
	}
	if series.TickerY == series.TickerX {
		return fmt.Errorf("%w: Y and X are the same ticker %q", ErrInvalidSeries, series.TickerY)
	}
	n := series.Len()
	if n <= e.cfg.WarmUp {
		return fmt.Errorf("%w: %d rows, warm-up needs more than %d", ErrSeriesTooShort, n, e.cfg.WarmUp)
	}
	for i, r := range series.Rows {
		if !validPrice(r.PriceY) || !validPrice(r.PriceX) {
			return fmt.Errorf("%w: row %d has price (%v, %v)", ErrInvalidSeries, i, r.PriceY, r.PriceX)
		}
		if i > 0 && r.TimestampMs <= series.Rows[i-1].TimestampMs {
			return fmt.Errorf("%w: row %d timestamp %d not after %d", ErrInvalidSeries, i, r.TimestampMs, series.Rows[i-1].TimestampMs)
		}
	}
	return nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
