package ledger

import "pairs-trading-lab/internal/domain"

// PortfolioValue returns cash plus the value of the active legs at q:
// full market value for longs, unrealized P&L for shorts.
// lotSize is part of the valuation signature but does not scale any leg.
func PortfolioValue(cash float64, long, short []*domain.Position, lotSize int64, q domain.Quote) float64 {
	value := cash
	for _, pos := range long {
		value += pos.MarkToMarket(q.PriceOf(pos.Leg))
	}
	for _, pos := range short {
		value += pos.MarkToMarket(q.PriceOf(pos.Leg))
	}
	return value
}
