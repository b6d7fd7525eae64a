// Package orchestrator runs backtests over a batch of screened pairs.
// It coordinates: screening result → initial vector → backtest → summary
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pairs-trading-lab/internal/backtest"
	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/domain"
)

// ErrNoRunner is returned by New when Options.Runner is nil.
var ErrNoRunner = errors.New("orchestrator requires a runner")

// Orchestrator backtests screened pairs on a bounded worker pool.
type Orchestrator struct {
	runner *backtest.Runner

	cfg           domain.BacktestConfig
	trainFraction float64
	overlay       int
	from, to      int64

	workers int
	logger  *zap.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Runner *backtest.Runner

	// Per-pair run parameters, shared by every pair
	Config        domain.BacktestConfig
	TrainFraction float64
	Overlay       int
	From          int64
	To            int64

	// Options
	Workers int // parallel backtests, values < 1 run sequentially
	Logger  *zap.Logger
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Runner == nil {
		return nil, ErrNoRunner
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		runner:        opts.Runner,
		cfg:           opts.Config,
		trainFraction: opts.TrainFraction,
		overlay:       opts.Overlay,
		from:          opts.From,
		to:            opts.To,
		workers:       workers,
		logger:        logger,
	}, nil
}

// PairRun is the outcome of one pair backtest.
type PairRun struct {
	Screen cointegration.ScreenResult
	Output *backtest.RunOutput // nil when Err is set
	Err    error
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	PairsProcessed int
	Succeeded      int
	Runs           []PairRun // in input order
	Errors         []string
}

// Top returns the first n screening results, all of them when n <= 0.
func Top(passing []cointegration.ScreenResult, n int) []cointegration.ScreenResult {
	if n <= 0 || n >= len(passing) {
		return passing
	}
	return passing[:n]
}

// Run backtests every pair. The screening vector of each pair is the
// initial vector of its run, so no training estimate is repeated.
// A failed pair is recorded in the result; only cancellation aborts the batch.
func (o *Orchestrator) Run(ctx context.Context, pairs []cointegration.ScreenResult) (*RunResult, error) {
	result := &RunResult{
		PairsProcessed: len(pairs),
		Runs:           make([]PairRun, len(pairs)),
	}
	if len(pairs) == 0 {
		return result, nil
	}

	o.logger.Info("backtesting pairs", zap.Int("pairs", len(pairs)), zap.Int("workers", o.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result.Runs[i] = o.runPair(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest pairs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backtest pairs: %w", err)
	}

	for _, run := range result.Runs {
		if run.Err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", run.Screen.PairID, run.Err))
			continue
		}
		result.Succeeded++
	}

	o.logger.Info("batch completed",
		zap.Int("pairs", result.PairsProcessed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (o *Orchestrator) runPair(ctx context.Context, p cointegration.ScreenResult) PairRun {
	run := PairRun{Screen: p}
	if p.Err != nil {
		run.Err = fmt.Errorf("screening failed: %w", p.Err)
		return run
	}

	initial := p.Johansen.Vector
	out, err := o.runner.Run(ctx, backtest.RunRequest{
		TickerY:       p.TickerY,
		TickerX:       p.TickerX,
		From:          o.from,
		To:            o.to,
		Config:        o.cfg,
		TrainFraction: o.trainFraction,
		Overlay:       o.overlay,
		InitialVector: &initial,
	})
	if err != nil {
		o.logger.Warn("pair backtest failed", zap.String("pair", p.PairID), zap.Error(err))
		run.Err = err
		return run
	}

	o.logger.Debug("pair backtest done",
		zap.String("pair", p.PairID),
		zap.Float64("final_value", out.Result.FinalValue()),
		zap.Int("legs", len(out.Result.Trades)),
	)
	run.Output = out
	return run
}
