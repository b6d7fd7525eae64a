package reporting

import (
	"sort"
	"time"

	"pairs-trading-lab/internal/backtest"
	"pairs-trading-lab/internal/cointegration"
	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/orchestrator"
)

// NewReport builds a Report from one engine run.
func NewReport(res *backtest.Result, cfg domain.BacktestConfig, generatedAt time.Time) *Report {
	r := &Report{
		GeneratedAt:         generatedAt.UTC(),
		PairID:              res.PairID,
		TickerY:             res.TickerY,
		TickerX:             res.TickerX,
		Rows:                len(res.PortfolioValues),
		WarmUp:              cfg.WarmUp,
		InitialCash:         cfg.InitialCash,
		InitialVector:       res.InitialVector,
		FinalVector:         res.InitialVector,
		Theta:               cfg.Theta,
		ExitBand:            cfg.ExitBand,
		RefreshFailures:     res.RefreshFailures,
		FinalValue:          res.FinalValue(),
		FinalCash:           res.FinalCash,
		Summary:             res.Summary,
		BorrowCost:          res.BorrowCost,
		CommissionCost:      res.CommissionCost,
		EntryCommissionCost: res.EntryCommissionCost,
		Stats:               res.Stats,
		Trades:              res.Trades,
	}
	if n := len(res.Diagnostics); n > 0 {
		r.FirstBarMs = res.Diagnostics[0].TimestampMs
		r.LastBarMs = res.Diagnostics[n-1].TimestampMs
		r.FinalVector = res.Diagnostics[n-1].Vector
	}
	return r
}

// NewScreenRows ranks screening results: passing pairs first by Strength
// descending, then the rest by PairID. Rank is 1-based over passing pairs
// and 0 for the others.
func NewScreenRows(results []cointegration.ScreenResult, cfg cointegration.ScreenConfig) []ScreenRow {
	rows := make([]ScreenRow, 0, len(results))
	for _, res := range results {
		row := ScreenRow{
			Sector:      res.Sector,
			PairID:      res.PairID,
			Correlation: res.Correlation,
			ADFStat:     res.ADF.Statistic,
			ADFCritical: res.ADF.Critical5,
			HedgeSlope:  res.HedgeSlope,
			HalfLife:    res.HalfLife,
			TraceStat:   res.Johansen.TraceStat,
			Critical95:  res.Johansen.CriticalValue95,
			Strength:    res.Strength,
			Eig1:        res.Johansen.Vector.Eig1,
			Eig2:        res.Johansen.Vector.Eig2,
			Passed:      res.Passes(cfg),
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Passed != rows[j].Passed {
			return rows[i].Passed
		}
		if rows[i].Passed && rows[i].Strength != rows[j].Strength {
			return rows[i].Strength > rows[j].Strength
		}
		return rows[i].PairID < rows[j].PairID
	})

	rank := 0
	for i := range rows {
		if rows[i].Passed {
			rank++
			rows[i].Rank = rank
		}
	}
	return rows
}

// NewBatchRows summarizes orchestrator runs in input order.
func NewBatchRows(runs []orchestrator.PairRun) []BatchRow {
	rows := make([]BatchRow, 0, len(runs))
	for _, run := range runs {
		row := BatchRow{PairID: run.Screen.PairID, Strength: run.Screen.Strength}
		if run.Err != nil {
			row.Error = run.Err.Error()
			rows = append(rows, row)
			continue
		}
		res := run.Output.Result
		row.FinalValue = res.FinalValue()
		row.TotalReturn = res.Summary.TotalReturn
		row.Sharpe = res.Summary.Sharpe
		row.MaxDrawdown = res.Summary.MaxDrawdown
		row.Legs = len(res.Trades)
		row.WinRate = res.Stats.WinRate
		row.TotalCost = res.BorrowCost + res.CommissionCost + res.EntryCommissionCost
		rows = append(rows, row)
	}
	return rows
}
