package domain

// PriceBar represents one daily close for a single ticker.
// Corresponds to price_bars table in PostgreSQL and ClickHouse.
type PriceBar struct {
	Ticker      string  // asset identifier
	TimestampMs int64   // bar timestamp, Unix milliseconds
	Close       float64 // closing price
}

// PairRow is one aligned observation of both legs of a pair.
type PairRow struct {
	TimestampMs int64   // shared bar timestamp (ms)
	PriceY      float64 // dependent asset price
	PriceX      float64 // independent asset price
}

// PairSeries is a dense, strictly increasing sequence of PairRow.
// Row offset (0-based) is used for warm-up gating.
type PairSeries struct {
	PairID  string // e.g. "MS-SCHW"
	TickerY string // dependent asset (first column)
	TickerX string // independent asset (second column)
	Rows    []PairRow
}

// Len returns the number of rows.
func (s *PairSeries) Len() int {
	return len(s.Rows)
}

// Quote returns the prices at row i keyed by ticker.
func (s *PairSeries) Quote(i int) Quote {
	r := s.Rows[i]
	return Quote{
		Index:       i,
		TimestampMs: r.TimestampMs,
		TickerY:     s.TickerY,
		TickerX:     s.TickerX,
		PriceY:      r.PriceY,
		PriceX:      r.PriceX,
	}
}

// Quote is the price snapshot the ledger trades against.
type Quote struct {
	Index       int
	TimestampMs int64
	TickerY     string
	TickerX     string
	PriceY      float64
	PriceX      float64
}

// PriceOf returns the quote price for leg, or 0 for an unknown leg.
func (q Quote) PriceOf(leg Leg) float64 {
	switch leg {
	case LegY:
		return q.PriceY
	case LegX:
		return q.PriceX
	default:
		return 0
	}
}

// EigenVector is a co-integrating vector: Eig1*PriceY + Eig2*PriceX is stationary.
type EigenVector struct {
	Eig1 float64
	Eig2 float64
}

// Combine returns the co-integrated spread eig1*y + eig2*x.
func (v EigenVector) Combine(y, x float64) float64 {
	return v.Eig1*y + v.Eig2*x
}
