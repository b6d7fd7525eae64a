// Package verification checks that a backtest replays to the same result.
// Stored legs and valuation samples are compared against a fresh run.
package verification

import (
	"fmt"
	"math"

	"pairs-trading-lab/internal/backtest"
	"pairs-trading-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// LegResult contains the result of verifying a single leg.
type LegResult struct {
	PositionID  string            // stored leg ID
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for a whole run.
type VerificationReport struct {
	PairID        string
	TotalLegs     int               // stored legs verified
	MatchedLegs   int               // legs that matched exactly
	DivergentLegs int               // legs with divergences
	Legs          []LegResult       // per-leg results, stored order
	RunDivergence []FieldDivergence // run-level fields: counts, cash, costs, valuation
}

// OK reports whether the replay reproduced the stored run.
func (r *VerificationReport) OK() bool {
	return r.DivergentLegs == 0 && len(r.RunDivergence) == 0
}

// ComparePositions compares two legs and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func ComparePositions(stored, replayed *domain.Position) []FieldDivergence {
	var divergences []FieldDivergence
	exact := func(field string, a, b interface{}) {
		if a != b {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}
	approx := func(field string, a, b float64) {
		if !floatEquals(a, b) {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}

	// Identity
	exact("PositionID", stored.PositionID, replayed.PositionID)
	exact("Leg", stored.Leg, replayed.Leg)
	exact("Ticker", stored.Ticker, replayed.Ticker)
	exact("Side", stored.Side, replayed.Side)
	exact("Shares", stored.Shares, replayed.Shares)

	// Entry values
	exact("EntryIndex", stored.EntryIndex, replayed.EntryIndex)
	exact("EntryTimeMs", stored.EntryTimeMs, replayed.EntryTimeMs)
	approx("EntryPrice", stored.EntryPrice, replayed.EntryPrice)
	approx("EntryCommission", stored.EntryCommission, replayed.EntryCommission)

	// Exit values
	exact("Open", stored.Open, replayed.Open)
	exact("ExitIndex", stored.ExitIndex, replayed.ExitIndex)
	exact("ExitTimeMs", stored.ExitTimeMs, replayed.ExitTimeMs)
	approx("ExitPrice", stored.ExitPrice, replayed.ExitPrice)
	exact("ExitReason", stored.ExitReason, replayed.ExitReason)

	// Realized values
	approx("RealizedPnL", stored.RealizedPnL, replayed.RealizedPnL)
	approx("Commission", stored.Commission, replayed.Commission)
	approx("BorrowCost", stored.BorrowCost, replayed.BorrowCost)

	return divergences
}

// CompareResults verifies every stored leg against the replayed run and
// compares run-level totals and the valuation series.
func CompareResults(stored, replayed *backtest.Result) *VerificationReport {
	report := &VerificationReport{
		PairID:    stored.PairID,
		TotalLegs: len(stored.Trades),
	}

	for i := range stored.Trades {
		leg := LegResult{PositionID: stored.Trades[i].PositionID}
		if i < len(replayed.Trades) {
			leg.Divergences = ComparePositions(&stored.Trades[i], &replayed.Trades[i])
		} else {
			leg.Divergences = []FieldDivergence{{Field: "Missing", Expected: stored.Trades[i].PositionID, Actual: nil}}
		}
		leg.Match = len(leg.Divergences) == 0
		if leg.Match {
			report.MatchedLegs++
		} else {
			report.DivergentLegs++
		}
		report.Legs = append(report.Legs, leg)
	}

	var run []FieldDivergence
	if len(stored.Trades) != len(replayed.Trades) {
		run = append(run, FieldDivergence{Field: "Trades", Expected: len(stored.Trades), Actual: len(replayed.Trades)})
	}
	if stored.RefreshFailures != replayed.RefreshFailures {
		run = append(run, FieldDivergence{Field: "RefreshFailures", Expected: stored.RefreshFailures, Actual: replayed.RefreshFailures})
	}
	for _, f := range []struct {
		name string
		a, b float64
	}{
		{"FinalCash", stored.FinalCash, replayed.FinalCash},
		{"BorrowCost", stored.BorrowCost, replayed.BorrowCost},
		{"CommissionCost", stored.CommissionCost, replayed.CommissionCost},
		{"EntryCommissionCost", stored.EntryCommissionCost, replayed.EntryCommissionCost},
	} {
		if !floatEquals(f.a, f.b) {
			run = append(run, FieldDivergence{Field: f.name, Expected: f.a, Actual: f.b})
		}
	}
	run = append(run, compareSeries("PortfolioValues", stored.PortfolioValues, replayed.PortfolioValues)...)
	run = append(run, compareSeries("CashValues", stored.CashValues, replayed.CashValues)...)
	report.RunDivergence = run

	return report
}

// compareSeries reports a length mismatch or the first divergent sample.
func compareSeries(name string, stored, replayed []float64) []FieldDivergence {
	if len(stored) != len(replayed) {
		return []FieldDivergence{{Field: name + ".len", Expected: len(stored), Actual: len(replayed)}}
	}
	for i := range stored {
		if !floatEquals(stored[i], replayed[i]) {
			return []FieldDivergence{{Field: fmt.Sprintf("%s[%d]", name, i), Expected: stored[i], Actual: replayed[i]}}
		}
	}
	return nil
}

// floatEquals compares two float64 values within FloatTolerance.
// Two NaNs are equal.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= FloatTolerance
}
