package metrics

import (
	"math"

	"pairs-trading-lab/internal/domain"
)

// TradingDaysPerYear annualizes daily-bar metrics.
const TradingDaysPerYear = 252

// Summarize computes equity-curve metrics over a portfolio value series.
// periodsPerYear <= 0 uses TradingDaysPerYear.
func Summarize(values []float64, periodsPerYear int) domain.PortfolioSummary {
	if len(values) == 0 {
		return domain.PortfolioSummary{}
	}
	if periodsPerYear <= 0 {
		periodsPerYear = TradingDaysPerYear
	}

	initial, final := values[0], values[len(values)-1]
	summary := domain.PortfolioSummary{
		InitialValue: initial,
		FinalValue:   final,
		MaxDrawdown:  computeMaxDrawdown(values),
	}
	if initial != 0 {
		summary.TotalReturn = final/initial - 1
	}

	returns := computeReturns(values)
	if len(returns) == 0 {
		return summary
	}

	annualizer := math.Sqrt(float64(periodsPerYear))
	mean := computeMean(returns)
	if std := computeStddev(returns, mean); std > 0 {
		summary.Sharpe = mean / std * annualizer
	}
	if dd := computeDownsideDeviation(returns); dd > 0 {
		summary.Sortino = mean / dd * annualizer
	}

	if summary.MaxDrawdown > 0 && initial > 0 && final > 0 {
		years := float64(len(returns)) / float64(periodsPerYear)
		annualReturn := math.Pow(final/initial, 1/years) - 1
		summary.Calmar = annualReturn / summary.MaxDrawdown
	}

	return summary
}

// computeReturns returns simple period returns, skipping periods that
// start from a zero value.
func computeReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

// computeDownsideDeviation is sqrt(mean(min(r, 0)^2)) over all returns.
func computeDownsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
		}
	}
	return math.Sqrt(sumSq / float64(len(returns)))
}

// computeMaxDrawdown calculates the worst peak-to-trough decline of the
// equity curve as a fraction of the running peak.
func computeMaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDrawdown := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - v) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
