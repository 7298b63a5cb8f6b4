// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name when none is configured.
const DefaultNamespace = "unicorn_dashboard"

// Metrics holds all Prometheus metrics for one dashboard instance.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Derivation metrics
	DerivationsTotal   *prometheus.CounterVec
	DerivationDuration *prometheus.HistogramVec

	// Store metrics
	MutationsTotal *prometheus.CounterVec
	Population     prometheus.Gauge
	StoreVersion   prometheus.Gauge

	// Filter metrics
	FilterChangesTotal *prometheus.CounterVec

	// Activity metrics
	ActivityEntries prometheus.Gauge

	// Live feed metrics
	FeedMessagesTotal *prometheus.CounterVec
	FeedReconnects    prometheus.Counter
	WSMessageLatency  prometheus.Histogram

	// Ingestion metrics
	RecordsImported *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	// Report metrics
	ReportsGenerated     prometheus.Counter
	LastSuccessfulReport prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on reg. Passing a fresh
// prometheus.NewRegistry() keeps instances independent.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Derivation metrics
		DerivationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "derivation",
			Name:      "computations_total",
			Help:      "Total number of derivation requests by kind and cache result",
		}, []string{"kind", "cache"}),
		DerivationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "derivation",
			Name:      "duration_seconds",
			Help:      "Uncached derivation duration in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"kind"}),

		// Store metrics
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Total number of store mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		Population: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "population",
			Help:      "Current number of unicorn records",
		}),
		StoreVersion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "version",
			Help:      "Current record store version",
		}),

		// Filter metrics
		FilterChangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "changes_total",
			Help:      "Total number of filter changes by dimension and outcome",
		}, []string{"dimension", "outcome"}),

		// Activity metrics
		ActivityEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "entries",
			Help:      "Current number of entries in the activity feed",
		}),

		// Live feed metrics
		FeedMessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Total number of live feed messages by type",
		}, []string{"type"}),
		FeedReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of live feed reconnect attempts",
		}),
		WSMessageLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Ingestion metrics
		RecordsImported: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_total",
			Help:      "Total number of ingested records by source, kind and outcome",
		}, []string{"source", "kind", "outcome"}),

		// Database metrics
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

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),

		// Report metrics
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "generated_total",
			Help:      "Total number of reports generated",
		}),
		LastSuccessfulReport: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of the last successful report",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint serving g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveDerivation records one derivation request.
func (m *Metrics) ObserveDerivation(kind string, cached bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	if cached {
		m.DerivationsTotal.WithLabelValues(kind, "hit").Inc()
		return
	}
	m.DerivationsTotal.WithLabelValues(kind, "miss").Inc()
	m.DerivationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordMutation records a store mutation and its outcome.
func (m *Metrics) RecordMutation(operation string, err error) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

// UpdateStore updates the store gauges.
func (m *Metrics) UpdateStore(population int, version uint64) {
	if m == nil {
		return
	}
	m.Population.Set(float64(population))
	m.StoreVersion.Set(float64(version))
}

// RecordFilterChange records a filter change attempt.
func (m *Metrics) RecordFilterChange(dimension string, err error) {
	if m == nil {
		return
	}
	m.FilterChangesTotal.WithLabelValues(dimension, outcome(err)).Inc()
}

// UpdateActivity sets the activity feed size gauge.
func (m *Metrics) UpdateActivity(entries int) {
	if m == nil {
		return
	}
	m.ActivityEntries.Set(float64(entries))
}

// RecordFeedMessage records one decoded live feed message.
func (m *Metrics) RecordFeedMessage(msgType string, latency time.Duration) {
	if m == nil {
		return
	}
	m.FeedMessagesTotal.WithLabelValues(msgType).Inc()
	m.WSMessageLatency.Observe(latency.Seconds())
}

// RecordFeedReconnect records a live feed reconnect attempt.
func (m *Metrics) RecordFeedReconnect() {
	if m == nil {
		return
	}
	m.FeedReconnects.Inc()
}

// RecordImport records one ingested record.
func (m *Metrics) RecordImport(source, kind string, err error) {
	if m == nil {
		return
	}
	m.RecordsImported.WithLabelValues(source, kind, outcome(err)).Inc()
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

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// RecordReport records a successfully written report.
func (m *Metrics) RecordReport(at time.Time) {
	if m == nil {
		return
	}
	m.ReportsGenerated.Inc()
	m.LastSuccessfulReport.Set(float64(at.Unix()))
}

func outcome(err error) string {
	if err != nil {
		return "rejected"
	}
	return "ok"
}
