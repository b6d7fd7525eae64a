// Package reporting renders backtest and screening output as Markdown and CSV.
package reporting

import (
	"time"

	"pairs-trading-lab/internal/domain"
)

// Report is the printable summary of one pair backtest.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	PairID      string
	TickerY     string
	TickerX     string

	// Data
	Rows        int
	WarmUp      int
	FirstBarMs  int64 // first traded row, 0 when the run never left warm-up
	LastBarMs   int64
	InitialCash float64

	// Signal
	InitialVector   domain.EigenVector
	FinalVector     domain.EigenVector
	Theta           float64
	ExitBand        float64
	RefreshFailures int

	// Portfolio
	FinalValue float64
	FinalCash  float64
	Summary    domain.PortfolioSummary

	// Costs
	BorrowCost          float64
	CommissionCost      float64 // exit commissions
	EntryCommissionCost float64

	// Trades
	Stats  domain.TradeStats
	Trades []domain.Position
}

// TotalCost returns borrow plus every commission paid.
func (r *Report) TotalCost() float64 {
	return r.BorrowCost + r.CommissionCost + r.EntryCommissionCost
}

// ScreenRow is one line of the screening table.
type ScreenRow struct {
	Rank        int
	Sector      string
	PairID      string
	Correlation float64
	ADFStat     float64
	ADFCritical float64
	HedgeSlope  float64
	HalfLife    float64
	TraceStat   float64
	Critical95  float64
	Strength    float64
	Eig1        float64
	Eig2        float64
	Passed      bool
	Error       string
}

// BatchRow summarizes one pair of a batch backtest.
type BatchRow struct {
	PairID      string
	Strength    float64
	FinalValue  float64
	TotalReturn float64
	Sharpe      float64
	MaxDrawdown float64
	Legs        int
	WinRate     float64
	TotalCost   float64
	Error       string
}
