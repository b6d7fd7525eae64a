package series

import (
	"errors"
	"fmt"

	"pairs-trading-lab/internal/domain"
)

// DefaultTrainFraction is the share of rows assigned to the training segment.
const DefaultTrainFraction = 0.6

// DefaultOverlay is the number of training rows prepended to the test segment.
const DefaultOverlay = 252

// ErrInvalidFraction is returned by Split for a fraction outside (0, 1).
var ErrInvalidFraction = errors.New("train fraction must be in (0, 1)")

// Split divides s chronologically: the first floor(len*frac) rows train, the rest test.
// Both results share no backing array with s.
func Split(s *domain.PairSeries, frac float64) (train, test *domain.PairSeries, err error) {
	if !(frac > 0 && frac < 1) {
		return nil, nil, fmt.Errorf("split %s with %v: %w", s.PairID, frac, ErrInvalidFraction)
	}
	cut := int(float64(s.Len()) * frac)
	return slice(s, 0, cut), slice(s, cut, s.Len()), nil
}

// WithOverlay prepends the last n rows of train to test so the
// estimation windows are already populated when the test segment starts.
// If train has fewer than n rows, all of it is prepended.
func WithOverlay(train, test *domain.PairSeries, n int) *domain.PairSeries {
	if n < 0 {
		n = 0
	}
	from := max(train.Len()-n, 0)

	rows := make([]domain.PairRow, 0, train.Len()-from+test.Len())
	rows = append(rows, train.Rows[from:]...)
	rows = append(rows, test.Rows...)

	return &domain.PairSeries{
		PairID:  test.PairID,
		TickerY: test.TickerY,
		TickerX: test.TickerX,
		Rows:    rows,
	}
}

func slice(s *domain.PairSeries, from, to int) *domain.PairSeries {
	rows := make([]domain.PairRow, to-from)
	copy(rows, s.Rows[from:to])
	return &domain.PairSeries{
		PairID:  s.PairID,
		TickerY: s.TickerY,
		TickerX: s.TickerX,
		Rows:    rows,
	}
}
