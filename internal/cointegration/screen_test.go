package cointegration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-trading-lab/internal/domain"
)

func TestPairs(t *testing.T) {
	got := Pairs([]string{"MS", "SCHW", "CMA"})
	assert.Equal(t, [][2]string{{"MS", "SCHW"}, {"MS", "CMA"}, {"SCHW", "CMA"}}, got)
	assert.Empty(t, Pairs([]string{"MS"}))
}

func TestScreen(t *testing.T) {
	candidates := []Candidate{
		{
			Sector: "Financials",
			Series: domain.PairSeries{PairID: "AAA-BBB", TickerY: "AAA", TickerX: "BBB", Rows: cointegratedRows(42, 300)},
		},
		{
			Sector: "Financials",
			Series: domain.PairSeries{PairID: "CCC-DDD", TickerY: "CCC", TickerX: "DDD", Rows: independentRows(3, 300)},
		},
		{
			Sector: "Airlines",
			Series: domain.PairSeries{PairID: "EEE-FFF", TickerY: "EEE", TickerX: "FFF", Rows: cointegratedRows(42, 5)},
		},
	}

	all, passing, err := Screen(context.Background(), NewJohansen(), candidates, DefaultScreenConfig)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "AAA-BBB", all[0].PairID)
	assert.NoError(t, all[0].Err)
	assert.Greater(t, all[0].Correlation, 0.6)
	assert.Greater(t, all[0].Strength, 1.0)

	assert.Error(t, all[2].Err, "too short to test")
	assert.False(t, all[2].Passes(DefaultScreenConfig))

	require.NotEmpty(t, passing)
	assert.Equal(t, "AAA-BBB", passing[0].PairID)
	for _, r := range passing {
		assert.True(t, r.Passes(DefaultScreenConfig))
	}
}

func TestScreen_SortsByStrength(t *testing.T) {
	strong := domain.PairSeries{PairID: "S", Rows: cointegratedRows(42, 300)}
	weaker := domain.PairSeries{PairID: "W", Rows: cointegratedRows(42, 120)}

	_, passing, err := Screen(context.Background(), NewJohansen(), []Candidate{{Series: weaker}, {Series: strong}}, DefaultScreenConfig)
	require.NoError(t, err)
	for i := 1; i < len(passing); i++ {
		assert.GreaterOrEqual(t, passing[i-1].Strength, passing[i].Strength)
	}
}
