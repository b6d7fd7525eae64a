package domain

// TradeStats summarizes realized P&L over every closed leg.
type TradeStats struct {
	TotalTrades int
	Wins        int     // pnl > 0
	Losses      int     // pnl <= 0
	WinRate     float64 // wins / total_trades, 0 when no trades
	AvgWin      float64 // mean of pnl > 0, 0 when none
	AvgLoss     float64 // mean of pnl < 0, 0 when none

	// Undefined (nil) when there is no losing leg.
	AvgWinLoss   *float64 // avg_win / |avg_loss|
	ProfitFactor *float64 // sum(wins) / |sum(losses)|

	MaxConsecutiveLosses int
}

// PortfolioSummary holds equity-curve metrics for a portfolio value series.
type PortfolioSummary struct {
	InitialValue float64
	FinalValue   float64
	TotalReturn  float64 // final / initial - 1
	Sharpe       float64 // annualized, 0 when returns have no dispersion
	Sortino      float64 // annualized, 0 when there are no negative returns
	MaxDrawdown  float64 // worst peak-to-trough as a fraction of peak
	Calmar       float64 // annualized return / max drawdown, 0 when no drawdown
}
