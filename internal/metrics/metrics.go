package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the analysis engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AdapterAttempts   *prometheus.CounterVec   // labels: adapter, outcome
	AdapterDuration   *prometheus.HistogramVec // labels: adapter
	SyntheticFallback prometheus.Counter
	SymbolFailures    *prometheus.CounterVec // labels: stage
	SymbolsAnalyzed   *prometheus.CounterVec // labels: category
	BatchDuration     prometheus.Histogram
	InflightSymbols   prometheus.Gauge
	AlertsSent        *prometheus.CounterVec // labels: scan
}

// NewMetrics creates all metrics and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AdapterAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_adapter_attempts_total",
			Help: "Source adapter fetch attempts by outcome",
		}, []string{"adapter", "outcome"}),
		AdapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_adapter_duration_seconds",
			Help:    "Source adapter fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"adapter"}),
		SyntheticFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_synthetic_fallbacks_total",
			Help: "Symbols served with synthetic bars after every adapter failed",
		}),
		SymbolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_symbol_failures_total",
			Help: "Per-symbol analysis failures by stage",
		}, []string{"stage"}),
		SymbolsAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_symbols_analyzed_total",
			Help: "Symbols scored by recommendation category",
		}, []string{"category"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_batch_duration_seconds",
			Help:    "Wall time of a batch analysis",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		InflightSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_inflight_symbols",
			Help: "Symbols currently being analyzed",
		}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alerts_sent_total",
			Help: "Alert notifications delivered by scan",
		}, []string{"scan"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AdapterAttempts,
			m.AdapterDuration,
			m.SyntheticFallback,
			m.SymbolFailures,
			m.SymbolsAnalyzed,
			m.BatchDuration,
			m.InflightSymbols,
			m.AlertsSent,
		)
	}
	return m
}

// ObserveAdapter records one adapter attempt.
func (m *Metrics) ObserveAdapter(adapter, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AdapterAttempts.WithLabelValues(adapter, outcome).Inc()
	m.AdapterDuration.WithLabelValues(adapter).Observe(d.Seconds())
}

// IncSynthetic counts a synthetic fallback.
func (m *Metrics) IncSynthetic() {
	if m == nil {
		return
	}
	m.SyntheticFallback.Inc()
}

// IncSymbolFailure counts a failed symbol at the given stage.
func (m *Metrics) IncSymbolFailure(stage string) {
	if m == nil {
		return
	}
	m.SymbolFailures.WithLabelValues(stage).Inc()
}

// IncAnalyzed counts a scored symbol.
func (m *Metrics) IncAnalyzed(category string) {
	if m == nil {
		return
	}
	m.SymbolsAnalyzed.WithLabelValues(category).Inc()
}

// ObserveBatch records a batch wall time.
func (m *Metrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
}

// TrackInflight adjusts the in-flight gauge by delta.
func (m *Metrics) TrackInflight(delta float64) {
	if m == nil {
		return
	}
	m.InflightSymbols.Add(delta)
}

// IncAlerts counts delivered alerts for a scan.
func (m *Metrics) IncAlerts(scan string, n int) {
	if m == nil {
		return
	}
	m.AlertsSent.WithLabelValues(scan).Add(float64(n))
}
