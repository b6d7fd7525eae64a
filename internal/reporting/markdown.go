package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// money formats a currency amount with two decimals.
func money(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// pct formats a fraction as a percentage with two decimals.
func pct(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// decimal.NewFromFloat panics on NaN and Inf.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ratio formats an optional ratio, "n/a" when undefined.
func ratio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func formatMs(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

// RenderMarkdown renders a backtest report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Pairs Backtest: %s\n\n", r.PairID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Long/short Y: %s | Hedge X: %s\n\n", r.TickerY, r.TickerX))

	// Data
	sb.WriteString("## Data\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Rows | %d |\n", r.Rows))
	sb.WriteString(fmt.Sprintf("| Warm-up Rows | %d |\n", r.WarmUp))
	sb.WriteString(fmt.Sprintf("| First Traded Bar | %s |\n", formatMs(r.FirstBarMs)))
	sb.WriteString(fmt.Sprintf("| Last Bar | %s |\n", formatMs(r.LastBarMs)))
	sb.WriteString(fmt.Sprintf("| Initial Vector | (%.6f, %.6f) |\n", r.InitialVector.Eig1, r.InitialVector.Eig2))
	sb.WriteString(fmt.Sprintf("| Final Vector | (%.6f, %.6f) |\n", r.FinalVector.Eig1, r.FinalVector.Eig2))
	sb.WriteString(fmt.Sprintf("| Re-estimation Fallbacks | %d |\n", r.RefreshFailures))
	sb.WriteString(fmt.Sprintf("| Entry Threshold | %.2f |\n", r.Theta))
	sb.WriteString(fmt.Sprintf("| Exit Band | %.2f |\n", r.ExitBand))
	sb.WriteString("\n")

	// Portfolio
	sb.WriteString("## Portfolio\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Cash | %s |\n", money(r.InitialCash)))
	sb.WriteString(fmt.Sprintf("| Final Portfolio Value | %s |\n", money(r.FinalValue)))
	sb.WriteString(fmt.Sprintf("| Final Cash | %s |\n", money(r.FinalCash)))
	sb.WriteString(fmt.Sprintf("| Total Return | %s |\n", pct(r.Summary.TotalReturn)))
	sb.WriteString(fmt.Sprintf("| Sharpe | %.4f |\n", r.Summary.Sharpe))
	sb.WriteString(fmt.Sprintf("| Sortino | %.4f |\n", r.Summary.Sortino))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s |\n", pct(r.Summary.MaxDrawdown)))
	sb.WriteString(fmt.Sprintf("| Calmar | %.4f |\n", r.Summary.Calmar))
	sb.WriteString("\n")

	// Costs
	sb.WriteString("## Cost Analysis\n\n")
	sb.WriteString("| Cost | Amount |\n")
	sb.WriteString("|------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Borrow | %s |\n", money(r.BorrowCost)))
	sb.WriteString(fmt.Sprintf("| Commissions (exit) | %s |\n", money(r.CommissionCost)))
	sb.WriteString(fmt.Sprintf("| Commissions (entry) | %s |\n", money(r.EntryCommissionCost)))
	sb.WriteString(fmt.Sprintf("| Total | %s |\n", money(r.TotalCost())))
	sb.WriteString("\n")

	// Trade statistics
	s := r.Stats
	sb.WriteString("## Trade Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", s.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Wins | %d |\n", s.Wins))
	sb.WriteString(fmt.Sprintf("| Losses | %d |\n", s.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %s |\n", pct(s.WinRate)))
	sb.WriteString(fmt.Sprintf("| Avg Win | %s |\n", money(s.AvgWin)))
	sb.WriteString(fmt.Sprintf("| Avg Loss | %s |\n", money(s.AvgLoss)))
	sb.WriteString(fmt.Sprintf("| Win/Loss Ratio | %s |\n", ratio(s.AvgWinLoss)))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", ratio(s.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", s.MaxConsecutiveLosses))
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) == 0 {
		sb.WriteString("No trades.\n")
		return sb.String()
	}
	sb.WriteString("| Ticker | Side | Shares | Entry | Entry Price | Exit | Exit Price | Reason | P&L |\n")
	sb.WriteString("|--------|------|--------|-------|-------------|------|------------|--------|-----|\n")
	for _, p := range r.Trades {
		exit, exitPrice, reason, pnl := "open", "-", "-", "-"
		if !p.Open {
			exit = formatMs(p.ExitTimeMs)
			exitPrice = money(p.ExitPrice)
			reason = string(p.ExitReason)
			pnl = money(p.RealizedPnL)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %s | %s | %s | %s |\n",
			p.Ticker, p.Side, p.Shares,
			formatMs(p.EntryTimeMs), money(p.EntryPrice),
			exit, exitPrice, reason, pnl))
	}

	return sb.String()
}

// RenderScreenMarkdown renders ranked screening rows as a Markdown table.
func RenderScreenMarkdown(rows []ScreenRow, generatedAt time.Time) string {
	var sb strings.Builder

	passed := 0
	for _, r := range rows {
		if r.Passed {
			passed++
		}
	}

	sb.WriteString("# Co-integration Screen\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Pairs: %d | Passed: %d\n\n", len(rows), passed))

	if len(rows) == 0 {
		sb.WriteString("No pairs screened.\n")
		return sb.String()
	}

	sb.WriteString("| Rank | Sector | Pair | Corr | ADF | ADF 5% | Slope | Half-life | Trace | CV95 | Strength | Eig1 | Eig2 | Status |\n")
	sb.WriteString("|------|--------|------|------|-----|--------|-------|-----------|-------|------|----------|------|------|--------|\n")
	for _, r := range rows {
		rank := "-"
		if r.Rank > 0 {
			rank = fmt.Sprintf("%d", r.Rank)
		}
		status := "FAIL"
		switch {
		case r.Error != "":
			status = "ERROR: " + r.Error
		case r.Passed:
			status = "PASS"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %.4f | %.4f | %.4f | %.2f | %.4f | %.4f | %.4f | %.6f | %.6f | %s |\n",
			rank, r.Sector, r.PairID, r.Correlation, r.ADFStat, r.ADFCritical,
			r.HedgeSlope, r.HalfLife, r.TraceStat, r.Critical95, r.Strength,
			r.Eig1, r.Eig2, status))
	}

	return sb.String()
}

// RenderBatchMarkdown renders the batch backtest table.
func RenderBatchMarkdown(rows []BatchRow, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Batch Backtest\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339)))

	if len(rows) == 0 {
		sb.WriteString("No pairs backtested.\n")
		return sb.String()
	}

	sb.WriteString("| Pair | Strength | Final Value | Return | Sharpe | Max DD | Legs | Win Rate | Costs |\n")
	sb.WriteString("|------|----------|-------------|--------|--------|--------|------|----------|-------|\n")
	for _, r := range rows {
		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | ERROR: %s | | | | | | |\n", r.PairID, r.Strength, r.Error))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %.4f | %s | %s | %.4f | %s | %d | %s | %s |\n",
			r.PairID, r.Strength, money(r.FinalValue), pct(r.TotalReturn), r.Sharpe,
			pct(r.MaxDrawdown), r.Legs, pct(r.WinRate), money(r.TotalCost)))
	}

	return sb.String()
}
