package cointegration

import "pairs-trading-lab/internal/domain"

// lcg is a 64-bit linear congruential generator returning values in [-0.5, 0.5).
type lcg struct {
	state uint64
}

func (g *lcg) next() float64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return float64(g.state>>11)/float64(uint64(1)<<53) - 0.5
}

// cointegratedRows returns y = 2x + noise with x a random walk.
func cointegratedRows(seed uint64, n int) []domain.PairRow {
	g := &lcg{state: seed}
	x := 100.0
	rows := make([]domain.PairRow, n)
	for i := range rows {
		x += 2 * g.next()
		y := 2*x + g.next()
		rows[i] = domain.PairRow{TimestampMs: int64(i), PriceY: y, PriceX: x}
	}
	return rows
}

// independentRows returns two unrelated random walks.
func independentRows(seed uint64, n int) []domain.PairRow {
	g := &lcg{state: seed}
	a, b := 50.0, 80.0
	rows := make([]domain.PairRow, n)
	for i := range rows {
		a += g.next()
		b += g.next()
		rows[i] = domain.PairRow{TimestampMs: int64(i), PriceY: a, PriceX: b}
	}
	return rows
}

func columns(rows []domain.PairRow) ([]float64, []float64) {
	y := make([]float64, len(rows))
	x := make([]float64, len(rows))
	for i, r := range rows {
		y[i], x[i] = r.PriceY, r.PriceX
	}
	return y, x
}
