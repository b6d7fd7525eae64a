// Package metrics derives trade statistics and equity-curve metrics
// from backtest output. All functions are pure.
package metrics

import (
	"math"

	"pairs-trading-lab/internal/domain"
)

// ComputeTradeStats summarizes realized P&L of closed legs, in close order.
// A zero P&L counts as a loss but is excluded from both averages.
func ComputeTradeStats(pnls []float64) domain.TradeStats {
	n := len(pnls)
	stats := domain.TradeStats{TotalTrades: n}
	if n == 0 {
		return stats
	}

	var wins, losses []float64
	for _, pnl := range pnls {
		switch {
		case pnl > 0:
			stats.Wins++
			wins = append(wins, pnl)
		case pnl < 0:
			stats.Losses++
			losses = append(losses, pnl)
		default:
			stats.Losses++
		}
	}

	stats.WinRate = computeWinRate(stats.Wins, n)
	stats.AvgWin = computeMean(wins)
	stats.AvgLoss = computeMean(losses)
	stats.MaxConsecutiveLosses = computeMaxConsecutiveLosses(pnls)

	if len(losses) > 0 {
		ratio := stats.AvgWin / math.Abs(stats.AvgLoss)
		stats.AvgWinLoss = &ratio

		factor := computeSum(wins) / math.Abs(computeSum(losses))
		stats.ProfitFactor = &factor
	}

	return stats
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func computeSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// computeMean calculates arithmetic mean, 0 for an empty slice.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return computeSum(values) / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeMaxConsecutiveLosses finds longest streak of pnl <= 0.
// P&L must be in close order.
func computeMaxConsecutiveLosses(pnls []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, pnl := range pnls {
		if pnl <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
