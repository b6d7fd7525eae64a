// Package ledger holds cash and the open legs of a single pair slot.
//
// The slot moves Flat -> Open -> Flat. Entries are only accepted while flat;
// a close drains every active leg in one call.
package ledger

import (
	"math"

	"pairs-trading-lab/internal/domain"
	"pairs-trading-lab/internal/idhash"
)

// Ledger tracks cash, active legs and the realized history of one pair.
// Not safe for concurrent use; the backtest driver owns it.
type Ledger struct {
	cfg     domain.BacktestConfig
	pairID  string
	tickerY string
	tickerX string

	cash  float64
	long  []*domain.Position
	short []*domain.Position

	trades []*domain.Position // every leg ever opened, in open order
	pnls   []float64          // realized P&L, in close order

	borrowCost          float64
	commissionCost      float64 // exit commissions
	entryCommissionCost float64
}

// New creates a flat ledger funded with cfg.InitialCash.
func New(cfg domain.BacktestConfig, pairID, tickerY, tickerX string) *Ledger {
	return &Ledger{
		cfg:     cfg,
		pairID:  pairID,
		tickerY: tickerY,
		tickerX: tickerX,
		cash:    cfg.InitialCash,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// IsFlat reports whether no leg is active.
func (l *Ledger) IsFlat() bool {
	return len(l.long) == 0 && len(l.short) == 0
}

// Long returns copies of the active long legs.
func (l *Ledger) Long() []domain.Position {
	return snapshot(l.long)
}

// Short returns copies of the active short legs.
func (l *Ledger) Short() []domain.Position {
	return snapshot(l.short)
}

// Trades returns copies of every leg opened so far, open or closed.
func (l *Ledger) Trades() []domain.Position {
	return snapshot(l.trades)
}

// RealizedPnL returns the realized P&L of every closed leg in close order.
func (l *Ledger) RealizedPnL() []float64 {
	out := make([]float64, len(l.pnls))
	copy(out, l.pnls)
	return out
}

// BorrowCost returns total borrow charged.
func (l *Ledger) BorrowCost() float64 {
	return l.borrowCost
}

// CommissionCost returns total exit commission.
func (l *Ledger) CommissionCost() float64 {
	return l.commissionCost
}

// EntryCommissionCost returns total commission paid when legs were opened.
func (l *Ledger) EntryCommissionCost() float64 {
	return l.entryCommissionCost
}

// Value returns cash plus the mark-to-market of every active leg at q.
func (l *Ledger) Value(q domain.Quote) float64 {
	return PortfolioValue(l.cash, l.long, l.short, l.cfg.LotSize, q)
}

// OpenLongY opens a long Y / short X pair when the ledger is flat.
// Returns the legs that passed their cash and size checks.
func (l *Ledger) OpenLongY(q domain.Quote, hedgeRatio float64) []domain.Position {
	if !l.IsFlat() {
		return nil
	}
	com := l.cfg.CommissionRate

	var opened []*domain.Position
	n := l.sizeDependentLeg(q.PriceY)
	cost := q.PriceY * float64(n) * (1 + com)
	if n > 0 && cost <= l.cfg.AllocationPct*l.cash {
		l.cash -= cost
		pos := l.open(q, domain.LegY, domain.SideLong, n, q.PriceY*float64(n)*com)
		opened = append(opened, pos)
	}

	m := hedgeShares(n, hedgeRatio)
	fee := q.PriceX * float64(m) * com
	if m > 0 && l.cash > fee {
		l.cash -= fee
		pos := l.open(q, domain.LegX, domain.SideShort, m, fee)
		opened = append(opened, pos)
	}
	return snapshot(opened)
}

// OpenShortY opens a short Y / long X pair when the ledger is flat.
func (l *Ledger) OpenShortY(q domain.Quote, hedgeRatio float64) []domain.Position {
	if !l.IsFlat() {
		return nil
	}
	com := l.cfg.CommissionRate

	var opened []*domain.Position
	n := l.sizeDependentLeg(q.PriceY)
	if n > 0 && q.PriceY*float64(n)*(1+com) <= l.cfg.AllocationPct*l.cash {
		fee := q.PriceY * float64(n) * com
		l.cash -= fee
		pos := l.open(q, domain.LegY, domain.SideShort, n, fee)
		opened = append(opened, pos)
	}

	m := hedgeShares(n, hedgeRatio)
	cost := q.PriceX * float64(m) * (1 + com)
	if m > 0 && l.cash > cost {
		l.cash -= cost
		pos := l.open(q, domain.LegX, domain.SideLong, m, q.PriceX*float64(m)*com)
		opened = append(opened, pos)
	}
	return snapshot(opened)
}

// AccrueBorrow debits one bar of borrow on every active short opened before q.
// Only charges in BorrowDaily mode; returns the amount charged.
func (l *Ledger) AccrueBorrow(q domain.Quote) float64 {
	if l.cfg.BorrowAccrual != domain.BorrowDaily {
		return 0
	}
	total := 0.0
	for _, pos := range l.short {
		if pos.EntryIndex < q.Index {
			total += l.chargeBorrow(pos, q)
		}
	}
	return total
}

// Close closes every active leg at q. Longs settle first, then shorts
// (after one bar of borrow in BorrowOnClose mode).
// Returns the closed legs.
func (l *Ledger) Close(q domain.Quote) []domain.Position {
	longs := drain(&l.long)
	for _, pos := range longs {
		l.closeLong(pos, q, domain.ExitSignal)
	}

	shorts := drain(&l.short)
	if l.cfg.BorrowAccrual == domain.BorrowOnClose {
		for _, pos := range shorts {
			l.chargeBorrow(pos, q)
		}
	}
	for _, pos := range shorts {
		l.closeShort(pos, q, domain.ExitSignal)
	}

	return snapshot(append(longs, shorts...))
}

// Liquidate force-closes every active leg at q without charging borrow.
func (l *Ledger) Liquidate(q domain.Quote) []domain.Position {
	longs := drain(&l.long)
	for _, pos := range longs {
		l.closeLong(pos, q, domain.ExitLiquidation)
	}
	shorts := drain(&l.short)
	for _, pos := range shorts {
		l.closeShort(pos, q, domain.ExitLiquidation)
	}
	return snapshot(append(longs, shorts...))
}

// sizeDependentLeg returns floor(allocation*cash / (price*(1+com))).
func (l *Ledger) sizeDependentLeg(price float64) int64 {
	if price <= 0 {
		return 0
	}
	budget := l.cfg.AllocationPct * l.cash
	shares := math.Floor(budget / (price * (1 + l.cfg.CommissionRate)))
	if shares <= 0 || math.IsNaN(shares) || math.IsInf(shares, 0) {
		return 0
	}
	return int64(shares)
}

// hedgeShares truncates hedgeRatio*n toward zero.
func hedgeShares(n int64, hedgeRatio float64) int64 {
	v := hedgeRatio * float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt64 || v <= math.MinInt64 {
		return 0
	}
	return int64(v)
}

func (l *Ledger) open(q domain.Quote, leg domain.Leg, side domain.Side, shares int64, fee float64) *domain.Position {
	ticker := l.tickerY
	if leg == domain.LegX {
		ticker = l.tickerX
	}
	pos := &domain.Position{
		PositionID:      idhash.ComputePositionID(l.pairID, ticker, side, q.Index, q.TimestampMs),
		Leg:             leg,
		Ticker:          ticker,
		Side:            side,
		Shares:          shares,
		EntryIndex:      q.Index,
		EntryTimeMs:     q.TimestampMs,
		EntryPrice:      q.PriceOf(leg),
		EntryCommission: fee,
		Open:            true,
	}
	if side == domain.SideLong {
		l.long = append(l.long, pos)
	} else {
		l.short = append(l.short, pos)
	}
	l.trades = append(l.trades, pos)
	l.entryCommissionCost += fee
	return pos
}

func (l *Ledger) chargeBorrow(pos *domain.Position, q domain.Quote) float64 {
	cost := pos.Notional(q.PriceOf(pos.Leg)) * l.cfg.BorrowRate
	l.cash -= cost
	l.borrowCost += cost
	pos.BorrowCost += cost
	return cost
}

func (l *Ledger) closeLong(pos *domain.Position, q domain.Quote, reason domain.ExitReason) {
	price := q.PriceOf(pos.Leg)
	com := l.cfg.CommissionRate

	proceeds := pos.Notional(price) * (1 - com)
	l.cash += proceeds
	fee := pos.Notional(price) * com
	pnl := proceeds - pos.Notional(pos.EntryPrice)*(1+com)

	l.settle(pos, q, reason, price, pnl, fee)
}

func (l *Ledger) closeShort(pos *domain.Position, q domain.Quote, reason domain.ExitReason) {
	price := q.PriceOf(pos.Leg)

	pnl := pos.MarkToMarket(price)
	fee := pos.Notional(price) * l.cfg.CommissionRate
	l.cash += pnl - fee

	l.settle(pos, q, reason, price, pnl, fee)
}

func (l *Ledger) settle(pos *domain.Position, q domain.Quote, reason domain.ExitReason, price, pnl, fee float64) {
	pos.ExitIndex = q.Index
	pos.ExitTimeMs = q.TimestampMs
	pos.ExitPrice = price
	pos.ExitReason = reason
	pos.RealizedPnL = pnl
	pos.Commission = fee
	pos.Open = false

	l.commissionCost += fee
	l.pnls = append(l.pnls, pnl)
}

// drain empties *active and returns the legs it held.
func drain(active *[]*domain.Position) []*domain.Position {
	closing := *active
	*active = nil
	return closing
}

func snapshot(positions []*domain.Position) []domain.Position {
	out := make([]domain.Position, len(positions))
	for i, pos := range positions {
		out[i] = *pos
	}
	return out
}
