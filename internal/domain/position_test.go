package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote_PriceOf(t *testing.T) {
	q := Quote{TickerY: "AAA", TickerX: "AAA", PriceY: 100, PriceX: 50}

	assert.Equal(t, 100.0, q.PriceOf(LegY))
	assert.Equal(t, 50.0, q.PriceOf(LegX))
	assert.Zero(t, q.PriceOf(Leg("")))
}

func TestPosition_NotionalAndMarks(t *testing.T) {
	long := Position{Leg: LegY, Side: SideLong, Shares: 10, EntryPrice: 100}
	short := Position{Leg: LegX, Side: SideShort, Shares: 20, EntryPrice: 50}

	assert.Equal(t, 1100.0, long.Notional(110))
	assert.Equal(t, 1100.0, long.MarkToMarket(110))
	assert.Equal(t, 900.0, short.Notional(45))
	assert.Equal(t, 100.0, short.MarkToMarket(45))
}
