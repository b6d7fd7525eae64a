package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-trading-lab/internal/domain"
)

func testConfig() domain.BacktestConfig {
	cfg := domain.DefaultBacktestConfig
	cfg.BorrowRate = 0.0001
	return cfg
}

func quote(index int, priceY, priceX float64) domain.Quote {
	return domain.Quote{
		Index:       index,
		TimestampMs: int64(index) * 86_400_000,
		TickerY:     "YYY",
		TickerX:     "XXX",
		PriceY:      priceY,
		PriceX:      priceX,
	}
}

func TestLedger_OpenLongY(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")

	opened := l.OpenLongY(quote(300, 100, 50), 1.5)
	require.Len(t, opened, 2)

	assert.Equal(t, "YYY", opened[0].Ticker)
	assert.Equal(t, domain.SideLong, opened[0].Side)
	assert.Equal(t, int64(3995), opened[0].Shares)
	assert.Equal(t, 100.0, opened[0].EntryPrice)

	assert.Equal(t, "XXX", opened[1].Ticker)
	assert.Equal(t, domain.SideShort, opened[1].Side)
	assert.Equal(t, int64(5992), opened[1].Shares)

	assert.InDelta(t, 599626.125, l.Cash(), 1e-6)
	assert.InDelta(t, 499.375+374.5, l.EntryCommissionCost(), 1e-9)
	assert.False(t, l.IsFlat())
	assert.Len(t, l.Long(), 1)
	assert.Len(t, l.Short(), 1)
}

func TestLedger_OpenShortY(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")

	opened := l.OpenShortY(quote(300, 100, 50), 1.5)
	require.Len(t, opened, 2)

	assert.Equal(t, domain.SideShort, opened[0].Side)
	assert.Equal(t, "YYY", opened[0].Ticker)
	assert.Equal(t, int64(3995), opened[0].Shares)
	assert.Equal(t, domain.SideLong, opened[1].Side)
	assert.Equal(t, "XXX", opened[1].Ticker)
	assert.Equal(t, int64(5992), opened[1].Shares)

	assert.InDelta(t, 699526.125, l.Cash(), 1e-6)
}

func TestLedger_OpenRequiresFlat(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	require.Len(t, l.OpenLongY(quote(300, 100, 50), 1.5), 2)
	cash := l.Cash()

	assert.Empty(t, l.OpenLongY(quote(301, 100, 50), 1.5))
	assert.Empty(t, l.OpenShortY(quote(301, 100, 50), 1.5))
	assert.Equal(t, cash, l.Cash())
	assert.Len(t, l.Trades(), 2)
}

func TestLedger_NonPositiveHedgeRatioOpensOneLeg(t *testing.T) {
	for _, hr := range []float64{0, -0.8, 0.0001} {
		l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
		opened := l.OpenLongY(quote(300, 100, 50), hr)
		require.Len(t, opened, 1, "hedge ratio %v", hr)
		assert.Equal(t, "YYY", opened[0].Ticker)
		assert.Empty(t, l.Short())
	}
}

func TestLedger_PriceAboveBudgetOpensNothing(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCash = 100
	l := New(cfg, "YYY-XXX", "YYY", "XXX")

	assert.Empty(t, l.OpenLongY(quote(300, 500, 50), 1))
	assert.True(t, l.IsFlat())
	assert.Equal(t, 100.0, l.Cash())
}

func TestLedger_CloseOnCloseBorrow(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	l.OpenLongY(quote(300, 100, 50), 1.5)

	closed := l.Close(quote(320, 110, 45))
	require.Len(t, closed, 2)
	assert.True(t, l.IsFlat())

	long, short := closed[0], closed[1]
	assert.Equal(t, domain.SideLong, long.Side)
	assert.False(t, long.Open)
	assert.Equal(t, 110.0, long.ExitPrice)
	assert.Equal(t, 320, long.ExitIndex)
	assert.Equal(t, domain.ExitSignal, long.ExitReason)
	assert.InDelta(t, 38901.3125, long.RealizedPnL, 1e-6)
	assert.InDelta(t, 549.3125, long.Commission, 1e-9)

	assert.Equal(t, domain.SideShort, short.Side)
	assert.Equal(t, 45.0, short.ExitPrice)
	assert.InDelta(t, 29960.0, short.RealizedPnL, 1e-9)
	assert.InDelta(t, 337.05, short.Commission, 1e-9)
	assert.InDelta(t, 26.964, short.BorrowCost, 1e-9)

	assert.InDelta(t, 1068122.7985, l.Cash(), 1e-6)
	assert.InDelta(t, 26.964, l.BorrowCost(), 1e-9)
	assert.InDelta(t, 549.3125+337.05, l.CommissionCost(), 1e-9)
	assert.Equal(t, []float64{long.RealizedPnL, short.RealizedPnL}, l.RealizedPnL())

	trades := l.Trades()
	require.Len(t, trades, 2)
	for _, tr := range trades {
		assert.False(t, tr.Open)
		assert.NotZero(t, tr.ExitPrice)
	}
}

func TestLedger_PricesLegsByRoleNotTicker(t *testing.T) {
	l := New(testConfig(), "AAA-AAA", "AAA", "AAA")
	entry := quote(300, 100, 50)
	entry.TickerY, entry.TickerX = "AAA", "AAA"
	opened := l.OpenLongY(entry, 1.5)
	require.Len(t, opened, 2)
	assert.Equal(t, domain.LegY, opened[0].Leg)
	assert.Equal(t, domain.LegX, opened[1].Leg)
	assert.Equal(t, 50.0, opened[1].EntryPrice)

	exit := quote(320, 110, 45)
	exit.TickerY, exit.TickerX = "AAA", "AAA"
	closed := l.Close(exit)
	require.Len(t, closed, 2)
	assert.Equal(t, 110.0, closed[0].ExitPrice)
	assert.Equal(t, 45.0, closed[1].ExitPrice)
	assert.InDelta(t, 29960.0, closed[1].RealizedPnL, 1e-9)
	assert.InDelta(t, 26.964, closed[1].BorrowCost, 1e-9)

	// Same arithmetic as a pair with distinct tickers.
	ref := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	ref.OpenLongY(quote(300, 100, 50), 1.5)
	ref.Close(quote(320, 110, 45))
	assert.InDelta(t, ref.Cash(), l.Cash(), 1e-9)
}

func TestLedger_DailyBorrow(t *testing.T) {
	cfg := testConfig()
	cfg.BorrowAccrual = domain.BorrowDaily
	l := New(cfg, "YYY-XXX", "YYY", "XXX")

	l.OpenLongY(quote(300, 100, 50), 1.5)
	assert.Zero(t, l.AccrueBorrow(quote(300, 100, 50)), "no borrow on the entry bar")

	perBar := 50 * 5992 * 0.0001
	assert.InDelta(t, perBar, l.AccrueBorrow(quote(301, 100, 50)), 1e-9)
	assert.InDelta(t, perBar, l.AccrueBorrow(quote(302, 100, 50)), 1e-9)

	closed := l.Close(quote(302, 100, 50))
	require.Len(t, closed, 2)
	assert.InDelta(t, 2*perBar, l.BorrowCost(), 1e-9)
	assert.InDelta(t, 2*perBar, closed[1].BorrowCost, 1e-9)
}

func TestLedger_OnCloseModeIgnoresAccrueBorrow(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	l.OpenLongY(quote(300, 100, 50), 1.5)

	assert.Zero(t, l.AccrueBorrow(quote(310, 100, 50)))
	assert.Zero(t, l.BorrowCost())
}

func TestLedger_LiquidateChargesNoBorrow(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	l.OpenShortY(quote(300, 100, 50), 1.5)

	closed := l.Liquidate(quote(599, 95, 52))
	require.Len(t, closed, 2)
	assert.True(t, l.IsFlat())
	assert.Zero(t, l.BorrowCost())
	for _, pos := range l.Trades() {
		assert.False(t, pos.Open)
		assert.NotZero(t, pos.ExitPrice)
		assert.Equal(t, 599, pos.ExitIndex)
		assert.Equal(t, domain.ExitLiquidation, pos.ExitReason)
	}

	// Short Y: (100-95)*3995, long X: 52*5992*(1-com) - 50*5992*(1+com).
	com := 0.00125
	assert.InDelta(t, 5.0*3995, closed[1].RealizedPnL, 1e-9)
	assert.InDelta(t, 52*5992*(1-com)-50*5992*(1+com), closed[0].RealizedPnL, 1e-6)
}

func TestLedger_CloseWhenFlatIsNoop(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	assert.Empty(t, l.Close(quote(10, 100, 50)))
	assert.Equal(t, 1_000_000.0, l.Cash())
	assert.Empty(t, l.RealizedPnL())
}

func TestLedger_ValueMatchesCashPlusMarks(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	l.OpenLongY(quote(300, 100, 50), 1.5)

	q := quote(305, 104, 48)
	want := l.Cash() + 104*3995 + (50-48)*5992.0
	assert.InDelta(t, want, l.Value(q), 1e-6)
}

func TestLedger_PositionIDsAreDistinct(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	opened := l.OpenLongY(quote(300, 100, 50), 1.5)
	require.Len(t, opened, 2)
	assert.Len(t, opened[0].PositionID, 64)
	assert.NotEqual(t, opened[0].PositionID, opened[1].PositionID)
}

func TestLedger_SnapshotsAreCopies(t *testing.T) {
	l := New(testConfig(), "YYY-XXX", "YYY", "XXX")
	l.OpenLongY(quote(300, 100, 50), 1.5)

	long := l.Long()
	long[0].Shares = 1
	assert.Equal(t, int64(3995), l.Long()[0].Shares)
}
