package backtest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/series"
	"pairs-trading-lab/internal/storage"
)

// ErrInitialEstimate is returned when no initial vector is supplied and the
// training segment does not yield one.
var ErrInitialEstimate = errors.New("initial co-integration estimate failed")

// RunRequest selects a pair and how its history is prepared.
type RunRequest struct {
	TickerY string
	TickerX string

	// From and To bound bar timestamps (ms, inclusive). To == 0 loads all bars.
	From int64
	To   int64

	Config domain.BacktestConfig

	// TrainFraction > 0 splits the aligned series; the backtest runs on the
	// test segment with Overlay training rows prepended.
	TrainFraction float64
	Overlay       int

	// InitialVector overrides the estimate on the training segment.
	InitialVector *domain.EigenVector
}

// RunOutput bundles the prepared series with the engine result.
type RunOutput struct {
	Train   *domain.PairSeries    // nil without a split
	Tested  *domain.PairSeries    // rows the engine folded
	Initial domain.EigenVector    // vector in force at the first row
	Fit     *cointegration.Result // training estimate, nil when InitialVector was given
	Result  *Result
}

// Runner loads a pair from storage and runs the engine on it.
type Runner struct {
	store storage.PriceBarStore
	est   cointegration.Estimator
	opts  []Option
}

// NewRunner creates a new backtest runner. opts are passed to every Engine it builds.
func NewRunner(store storage.PriceBarStore, est cointegration.Estimator, opts ...Option) *Runner {
	return &Runner{store: store, est: est, opts: opts}
}

// Run executes one pair backtest from stored bars.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunOutput, error) {
	aligned, err := r.load(ctx, req)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(req.Config, r.est, domain.EigenVector{}, r.opts...)
	if err != nil {
		return nil, err
	}

	out := &RunOutput{Tested: aligned}
	train := aligned
	if req.TrainFraction > 0 {
		var test *domain.PairSeries
		train, test, err = series.Split(aligned, req.TrainFraction)
		if err != nil {
			return nil, err
		}
		out.Train = train
		out.Tested = series.WithOverlay(train, test, req.Overlay)
	}

	if req.InitialVector != nil {
		out.Initial = *req.InitialVector
	} else {
		if r.est == nil {
			return nil, fmt.Errorf("%w: no estimator configured", ErrInitialEstimate)
		}
		fit, err := r.est.Estimate(train.Rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInitialEstimate, aligned.PairID, err)
		}
		out.Fit = &fit
		out.Initial = fit.Vector
		engine.logger.Info("initial vector estimated",
			zap.String("pair", aligned.PairID),
			zap.Int("train_rows", train.Len()),
			zap.Float64("eig1", fit.Vector.Eig1),
			zap.Float64("eig2", fit.Vector.Eig2),
			zap.Float64("trace", fit.TraceStat),
			zap.Bool("passes", fit.Passes()),
		)
	}

	engine.initial = out.Initial
	out.Result, err = engine.Run(ctx, *out.Tested)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) load(ctx context.Context, req RunRequest) (*domain.PairSeries, error) {
	ys, err := r.bars(ctx, req.TickerY, req.From, req.To)
	if err != nil {
		return nil, err
	}
	xs, err := r.bars(ctx, req.TickerX, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return series.Align(req.TickerY, req.TickerX, ys, xs)
}

func (r *Runner) bars(ctx context.Context, ticker string, from, to int64) ([]*domain.PriceBar, error) {
	var (
		bars []*domain.PriceBar
		err  error
	)
	if to == 0 {
		bars, err = r.store.GetByTicker(ctx, ticker)
	} else {
		bars, err = r.store.GetByTimeRange(ctx, ticker, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ticker, err)
	}
	return bars, nil
}
