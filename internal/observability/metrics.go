// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Backtest metrics
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	RowsProcessed    prometheus.Counter
	LegsOpened       *prometheus.CounterVec
	LegsClosed       *prometheus.CounterVec
	RefreshFailures  prometheus.Counter
	FinalValue       *prometheus.GaugeVec
	RealizedPnLTotal *prometheus.GaugeVec

	// Screening metrics
	PairsScreened *prometheus.CounterVec

	// Ingestion metrics
	BarsIngested *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pairs_trading_lab"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		RowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "rows_processed_total",
			Help:      "Total number of price rows folded",
		}),
		LegsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "legs_opened_total",
			Help:      "Total number of position legs opened by side",
		}, []string{"side"}),
		LegsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "legs_closed_total",
			Help:      "Total number of position legs closed by reason",
		}, []string{"reason"}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "vector_refresh_failures_total",
			Help:      "Co-integration refreshes that kept the previous vector",
		}),
		FinalValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "final_portfolio_value",
			Help:      "Portfolio value on the last row of the latest run",
		}, []string{"pair"}),
		RealizedPnLTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "realized_pnl",
			Help:      "Sum of realized leg P&L in the latest run",
		}, []string{"pair"}),

		PairsScreened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "pairs_total",
			Help:      "Total number of pairs screened by outcome",
		}, []string{"outcome"}),

		BarsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_total",
			Help:      "Total number of price bars stored by ticker",
		}, []string{"ticker"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Push sends every metric to a Prometheus Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// RecordRun records a finished backtest run.
func (m *Metrics) RecordRun(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordRows adds n folded rows.
func (m *Metrics) RecordRows(n int) {
	if m == nil {
		return
	}
	m.RowsProcessed.Add(float64(n))
}

// RecordLegOpened counts one opened leg.
func (m *Metrics) RecordLegOpened(side string) {
	if m == nil {
		return
	}
	m.LegsOpened.WithLabelValues(side).Inc()
}

// RecordLegsClosed counts n legs closed for reason ("exit" or "liquidation").
func (m *Metrics) RecordLegsClosed(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.LegsClosed.WithLabelValues(reason).Add(float64(n))
}

// RecordRefreshFailure counts one failed vector refresh.
func (m *Metrics) RecordRefreshFailure() {
	if m == nil {
		return
	}
	m.RefreshFailures.Inc()
}

// RecordOutcome sets the end-of-run gauges for pair.
func (m *Metrics) RecordOutcome(pair string, finalValue, realizedPnL float64) {
	if m == nil {
		return
	}
	m.FinalValue.WithLabelValues(pair).Set(finalValue)
	m.RealizedPnLTotal.WithLabelValues(pair).Set(realizedPnL)
}

// RecordScreened counts one screened pair by outcome ("passed", "rejected", "error", "no_data").
func (m *Metrics) RecordScreened(outcome string) {
	if m == nil {
		return
	}
	m.PairsScreened.WithLabelValues(outcome).Inc()
}

// RecordBarsIngested counts n stored bars for ticker.
func (m *Metrics) RecordBarsIngested(ticker string, n int) {
	if m == nil {
		return
	}
	m.BarsIngested.WithLabelValues(ticker).Add(float64(n))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
