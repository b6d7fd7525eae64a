package domain

// Side is the direction of a position leg.
type Side string

// Side constants
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Leg identifies which asset of the pair a position holds.
type Leg string

// Leg constants
const (
	LegY Leg = "Y" // dependent asset
	LegX Leg = "X" // independent asset
)

// ExitReason records why a leg was closed.
type ExitReason string

// ExitReason constants
const (
	ExitSignal      ExitReason = "SIGNAL"      // |z| fell inside the exit band
	ExitLiquidation ExitReason = "LIQUIDATION" // forced close after the last row
)

// Position represents one leg of a pair trade.
// Owned by the ledger while open; stays in the trade history after close.
type Position struct {
	PositionID string // deterministic hash, see idhash.ComputePositionID
	Leg        Leg    // Y | X, selects the quote price
	Ticker     string // asset identifier
	Side       Side   // LONG | SHORT
	Shares     int64  // always >= 1 at creation

	// Entry
	EntryIndex  int     // row offset of the entry bar
	EntryTimeMs int64   // entry bar timestamp (ms)
	EntryPrice  float64 // fill price

	EntryCommission float64 // commission paid at entry

	// Exit (zero values while open)
	ExitIndex  int
	ExitTimeMs int64
	ExitPrice  float64
	ExitReason ExitReason

	// Realized on close
	RealizedPnL float64 // per the leg's close formula, excludes entry commission on shorts
	Commission  float64 // exit commission
	BorrowCost  float64 // total borrow charged to this leg (shorts only)

	Open bool
}

// Notional returns price * shares.
func (p *Position) Notional(price float64) float64 {
	return price * float64(p.Shares)
}

// MarkToMarket returns the leg's contribution to portfolio value at price.
// Long legs count full market value; short legs count unrealized P&L only.
func (p *Position) MarkToMarket(price float64) float64 {
	if p.Side == SideShort {
		return (p.EntryPrice - price) * float64(p.Shares)
	}
	return p.Notional(price)
}
