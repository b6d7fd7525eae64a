package backtest

import (
	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/signal"
)

// StepDiagnostic captures the estimator and signal state of one traded row.
type StepDiagnostic struct {
	Offset         int
	TimestampMs    int64
	PriceX         float64
	PredictedX     float64 // w0 + w1 * PriceY
	HedgeRatio     float64
	Vector         domain.EigenVector // vector in effect for this row
	Refreshed      bool               // vector came from this row's re-estimate
	Spread         float64            // raw co-integrated spread
	Eig1Hat        float64            // loading filter weight on PriceY
	Eig2Hat        float64            // loading filter weight on PriceX
	FilteredSpread float64            // Eig1Hat*PriceY + Eig2Hat*PriceX
	ZScore         signal.ZScore
}

// Result is the output of one backtest run.
type Result struct {
	PairID        string
	TickerY       string
	TickerX       string
	InitialVector domain.EigenVector

	// PortfolioValues holds one value per input row; CashValues the cash
	// balance it was computed from.
	PortfolioValues []float64
	CashValues      []float64
	// Diagnostics holds one entry per row at or after warm-up.
	Diagnostics []StepDiagnostic

	FinalCash           float64
	BorrowCost          float64
	CommissionCost      float64 // exit commissions
	EntryCommissionCost float64

	Trades []domain.Position // every leg, in open order
	PnL    []float64         // realized P&L per leg, in close order

	Stats   domain.TradeStats
	Summary domain.PortfolioSummary

	RefreshFailures int
}

// FinalValue returns the last portfolio value sample.
func (r *Result) FinalValue() float64 {
	if len(r.PortfolioValues) == 0 {
		return 0
	}
	return r.PortfolioValues[len(r.PortfolioValues)-1]
}

// RealizedPnL returns the sum of realized leg P&L.
func (r *Result) RealizedPnL() float64 {
	total := 0.0
	for _, pnl := range r.PnL {
		total += pnl
	}
	return total
}
