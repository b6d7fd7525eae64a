package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pairs-trading-lab/internal/backtest"
	"pairs-trading-lab/internal/domain"
)

// RenderTradesCSV renders every leg as CSV, in open order.
// Money columns are fixed to 4 decimals; open legs leave exit columns empty.
func RenderTradesCSV(trades []domain.Position) string {
	var sb strings.Builder

	sb.WriteString("position_id,ticker,side,shares,entry_index,entry_time_ms,entry_price,entry_commission,")
	sb.WriteString("exit_index,exit_time_ms,exit_price,exit_reason,realized_pnl,exit_commission,borrow_cost\n")

	for _, p := range trades {
		exitIndex, exitTime, exitPrice, reason, pnl, commission, borrow := "", "", "", "", "", "", ""
		if !p.Open {
			exitIndex = strconv.Itoa(p.ExitIndex)
			exitTime = strconv.FormatInt(p.ExitTimeMs, 10)
			exitPrice = fixed(p.ExitPrice)
			reason = string(p.ExitReason)
			pnl = fixed(p.RealizedPnL)
			commission = fixed(p.Commission)
			borrow = fixed(p.BorrowCost)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%d,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			p.PositionID,
			p.Ticker,
			p.Side,
			p.Shares,
			p.EntryIndex,
			p.EntryTimeMs,
			fixed(p.EntryPrice),
			fixed(p.EntryCommission),
			exitIndex, exitTime, exitPrice, reason, pnl, commission, borrow,
		))
	}

	return sb.String()
}

// RenderDiagnosticsCSV renders the per-row estimator state. An undefined
// z-score is written as an empty field.
func RenderDiagnosticsCSV(diags []backtest.StepDiagnostic) string {
	var sb strings.Builder

	sb.WriteString("offset,timestamp_ms,price_x,predicted_x,hedge_ratio,eig1,eig2,refreshed,spread,eig1_hat,eig2_hat,filtered_spread,z_score\n")

	for _, d := range diags {
		z := ""
		if v, ok := d.ZScore.Value(); ok {
			z = strconv.FormatFloat(v, 'f', 6, 64)
		}
		sb.WriteString(fmt.Sprintf("%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%t,%.6f,%.6f,%.6f,%.6f,%s\n",
			d.Offset,
			d.TimestampMs,
			d.PriceX,
			d.PredictedX,
			d.HedgeRatio,
			d.Vector.Eig1,
			d.Vector.Eig2,
			d.Refreshed,
			d.Spread,
			d.Eig1Hat,
			d.Eig2Hat,
			d.FilteredSpread,
			z,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders portfolio value and cash per row.
func RenderEquityCSV(values, cash []float64) string {
	var sb strings.Builder

	sb.WriteString("offset,portfolio_value,cash\n")
	for i, v := range values {
		c := ""
		if i < len(cash) {
			c = fixed(cash[i])
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%s\n", i, fixed(v), c))
	}

	return sb.String()
}

func fixed(v float64) string {
	if !finite(v) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(4)
}
