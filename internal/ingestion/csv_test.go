package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-trading-lab/internal/observability"
	"pairs-trading-lab/internal/storage"
	"pairs-trading-lab/internal/storage/memory"
)

const day20240102 = int64(1704153600000)

func TestReadCSV(t *testing.T) {
	input := `Date,Open,Close,Volume
2024-01-02,90.1,91.25,1000
2024-01-03,91.0,,1200
2024-01-04,92.0,NaN,900
2024-01-05,93.0,93.5,800
`
	res, err := ReadCSV(strings.NewReader(input), "MS")
	require.NoError(t, err)

	require.Len(t, res.Bars, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "MS", res.Bars[0].Ticker)
	assert.Equal(t, day20240102, res.Bars[0].TimestampMs)
	assert.Equal(t, 91.25, res.Bars[0].Close)
	assert.Equal(t, day20240102+3*86_400_000, res.Bars[1].TimestampMs)
}

func TestReadCSV_DateFormats(t *testing.T) {
	input := "date,close\n2024-01-02T00:00:00Z,1\n2024-01-03 00:00:00-05:00,2\n"
	res, err := ReadCSV(strings.NewReader(input), "X")
	require.NoError(t, err)
	require.Len(t, res.Bars, 2)
	assert.Equal(t, day20240102, res.Bars[0].TimestampMs)
	assert.Equal(t, day20240102+86_400_000+5*3_600_000, res.Bars[1].TimestampMs)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"no date column", "day,close\n2024-01-02,1\n", ErrMissingColumn},
		{"no close column", "date,price\n2024-01-02,1\n", ErrMissingColumn},
		{"bad date", "date,close\n02/01/2024,1\n", ErrBadRow},
		{"bad close", "date,close\n2024-01-02,abc\n", ErrBadRow},
		{"short row", "date,open,close\n2024-01-02,1\n", ErrBadRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), "X")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "X")
	assert.Error(t, err)
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ms.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,close\n2024-01-03,2\n2024-01-02,1\n"), 0o600))

	store := memory.NewPriceBarStore()
	m := observability.NewMetrics("test")
	loader := NewLoader(LoaderOptions{Store: store, Metrics: m})
	ctx := context.Background()

	n, err := loader.LoadFile(ctx, "MS", path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bars, err := store.GetByTicker(ctx, "MS")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BarsIngested.WithLabelValues("MS")))

	// Re-loading the same file hits the duplicate check.
	_, err = loader.LoadFile(ctx, "MS", path)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader(LoaderOptions{Store: memory.NewPriceBarStore()})
	_, err := loader.LoadFile(context.Background(), "MS", filepath.Join(t.TempDir(), "none.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
