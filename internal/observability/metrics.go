// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the agent. A nil *Metrics is a
// valid no-op recorder so components can run unmetered in tests.
type Metrics struct {
	// Gate metrics
	GateVerdicts *prometheus.CounterVec
	GateBlocks   *prometheus.CounterVec

	// Executor metrics
	AttemptsTotal   *prometheus.CounterVec
	ExecutorRetries prometheus.Counter
	QuoteLatency    prometheus.Histogram

	// Position metrics
	OpenPositions prometheus.Gauge
	TradesClosed  *prometheus.CounterVec
	RealizedPnL   prometheus.Counter
	RealizedLoss  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all metrics registered on the
// default registry. Call at most once per process.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bags_trader"
	}

	return &Metrics{
		GateVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "verdicts_total",
			Help:      "Total number of risk gate verdicts by decision",
		}, []string{"decision"}),
		GateBlocks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "blocks_total",
			Help:      "Total number of blocking check results by check name",
		}, []string{"check"}),

		AttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "attempts_total",
			Help:      "Total number of execution attempts by terminal state",
		}, []string{"state"}),
		ExecutorRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "retries_total",
			Help:      "Total number of attempt restarts after expiry",
		}),
		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "quote_latency_seconds",
			Help:      "Quote fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		TradesClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "trades_closed_total",
			Help:      "Total number of closed trades by exit reason",
		}, []string{"reason"}),
		RealizedPnL: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "realized_profit_lamports_total",
			Help:      "Total realized profit in lamports",
		}),
		RealizedLoss: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "realized_loss_lamports_total",
			Help:      "Total realized loss in lamports",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncGateVerdict records a gate decision and any blocking check names.
func (m *Metrics) IncGateVerdict(decision string, blockedChecks []string) {
	if m == nil {
		return
	}
	m.GateVerdicts.WithLabelValues(decision).Inc()
	for _, check := range blockedChecks {
		m.GateBlocks.WithLabelValues(check).Inc()
	}
}

// ObserveAttempt records an attempt reaching a terminal state.
func (m *Metrics) ObserveAttempt(state string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(state).Inc()
}

// IncExecutorRetry records an attempt restart.
func (m *Metrics) IncExecutorRetry() {
	if m == nil {
		return
	}
	m.ExecutorRetries.Inc()
}

// ObserveQuoteLatency records one quote fetch.
func (m *Metrics) ObserveQuoteLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.QuoteLatency.Observe(d.Seconds())
}

// SetOpenPositions updates the open position gauge.
func (m *Metrics) SetOpenPositions(n int) {
	if m == nil {
		return
	}
	m.OpenPositions.Set(float64(n))
}

// ObserveClosedTrade records a closed trade and its realized result.
func (m *Metrics) ObserveClosedTrade(reason string, pnlLamports int64) {
	if m == nil {
		return
	}
	m.TradesClosed.WithLabelValues(reason).Inc()
	if pnlLamports >= 0 {
		m.RealizedPnL.Add(float64(pnlLamports))
	} else {
		m.RealizedLoss.Add(float64(-pnlLamports))
	}
}

// ObserveDBQuery records database query duration and errors.
func (m *Metrics) ObserveDBQuery(database, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
