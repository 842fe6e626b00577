// Package metrics provides Prometheus metrics for the production pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "enrprod"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// Drop reasons.
const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// Metrics holds all Prometheus metrics for the pipeline. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Load metrics
	LoadTotal        *prometheus.CounterVec
	LoadDuration     prometheus.Histogram
	ObservationsRows prometheus.Gauge
	RowsDropped      *prometheus.CounterVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Export metrics
	ExportTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// New creates the collectors on reg. An empty namespace uses DefaultNamespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	factory := promauto.With(reg)

	return &Metrics{
		LoadTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_total",
				Help:      "Total dataset loads by result",
			},
			[]string{"result"},
		),
		LoadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Time to load and normalize the dataset",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ObservationsRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "observations_rows",
				Help:      "Observations in the most recently built dataset",
			},
		),
		RowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_dropped_total",
				Help:      "Value cells dropped during normalization by reason",
			},
			[]string{"reason"},
		),
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Dataset cache lookups by result",
			},
			[]string{"result"},
		),
		ExportTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "export_total",
				Help:      "Export operations by format and result",
			},
			[]string{"format", "result"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

func result(err error) string {
	if err != nil {
		return ResultError
	}

	return ResultSuccess
}

// RecordLoad records one load attempt and its duration.
func (m *Metrics) RecordLoad(d time.Duration, err error) {
	if m == nil {
		return
	}

	m.LoadTotal.WithLabelValues(result(err)).Inc()
	m.LoadDuration.Observe(d.Seconds())
}

// RecordNormalization records the outcome of a successful normalization.
func (m *Metrics) RecordNormalization(rows, droppedMissing, droppedInvalid int) {
	if m == nil {
		return
	}

	m.ObservationsRows.Set(float64(rows))
	m.RowsDropped.WithLabelValues(ReasonMissing).Add(float64(droppedMissing))
	m.RowsDropped.WithLabelValues(ReasonInvalid).Add(float64(droppedInvalid))
}

// RecordCache records a cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}

	if hit {
		m.CacheRequests.WithLabelValues(ResultHit).Inc()
	} else {
		m.CacheRequests.WithLabelValues(ResultMiss).Inc()
	}
}

// RecordExport records one export of format.
func (m *Metrics) RecordExport(format string, err error) {
	if m == nil {
		return
	}

	m.ExportTotal.WithLabelValues(format, result(err)).Inc()
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(route string, code int) {
	if m == nil {
		return
	}

	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler returns an HTTP handler exposing the metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
