package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("test")

	m.RecordRun("success", 0.2)
	m.RecordRows(600)
	m.RecordLegOpened("LONG")
	m.RecordLegOpened("SHORT")
	m.RecordLegsClosed("exit", 2)
	m.RecordLegsClosed("liquidation", 0)
	m.RecordRefreshFailure()
	m.RecordOutcome("MS-SCHW", 1_010_000, 10_000)
	m.RecordScreened("passed")
	m.RecordBarsIngested("MS", 252)
	m.RecordDBQuery("postgres", "insert", 0.01, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 600.0, testutil.ToFloat64(m.RowsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LegsOpened.WithLabelValues("LONG")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LegsClosed.WithLabelValues("exit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshFailures))
	assert.Equal(t, 1_010_000.0, testutil.ToFloat64(m.FinalValue.WithLabelValues("MS-SCHW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PairsScreened.WithLabelValues("passed")))
	assert.Equal(t, 252.0, testutil.ToFloat64(m.BarsIngested.WithLabelValues("MS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRun("success", 1)
	m.RecordLegOpened("LONG")
	m.RecordOutcome("p", 1, 1)
	assert.NoError(t, m.Push(context.Background(), "http://unused", "job"))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a := NewMetrics("dup")
	b := NewMetrics("dup")
	a.RecordRows(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsProcessed))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("test")
	m.RecordRows(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_backtest_rows_processed_total 3")
}

func TestMetrics_Push(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics("test")
	m.RecordRows(1)
	require.NoError(t, m.Push(context.Background(), srv.URL, "pairs_backtest"))
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/pairs_backtest"), gotPath)
}

func TestMetrics_PushEmptyURLSkips(t *testing.T) {
	assert.NoError(t, NewMetrics("test").Push(context.Background(), "", "job"))
}

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{false, true} {
		logger, err := NewLogger(debug, "test")
		require.NoError(t, err)
		assert.Equal(t, debug, logger.Core().Enabled(zapcore.DebugLevel))
	}
}
