package verification

import (
	"context"
	"errors"
	"fmt"

	"pairs-trading-lab/internal/backtest"
)

// ErrNoStoredRun is returned when there is nothing to verify against.
var ErrNoStoredRun = errors.New("no stored run to verify")

// ReplayVerifier re-runs a backtest request and compares it to a stored output.
type ReplayVerifier struct {
	runner *backtest.Runner
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(runner *backtest.Runner) *ReplayVerifier {
	return &ReplayVerifier{runner: runner}
}

// Verify replays req with the stored initial vector pinned, so the
// comparison covers the fold and not only the training estimate.
func (v *ReplayVerifier) Verify(ctx context.Context, req backtest.RunRequest, stored *backtest.RunOutput) (*VerificationReport, error) {
	if stored == nil || stored.Result == nil {
		return nil, ErrNoStoredRun
	}

	initial := stored.Initial
	req.InitialVector = &initial
	replayed, err := v.runner.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", stored.Result.PairID, err)
	}

	report := CompareResults(stored.Result, replayed.Result)
	if stored.Tested != nil && stored.Tested.Len() != replayed.Tested.Len() {
		report.RunDivergence = append(report.RunDivergence, FieldDivergence{
			Field:    "TestedRows",
			Expected: stored.Tested.Len(),
			Actual:   replayed.Tested.Len(),
		})
	}
	return report, nil
}
