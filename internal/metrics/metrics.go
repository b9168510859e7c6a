// Package metrics exposes Prometheus collectors for the gift ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRateLimited,
			Help: HelpTextRateLimited,
		},
	)

	SuspiciousRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSuspiciousRequests,
			Help: HelpTextSuspiciousRequests,
		},
	)
)

// Ledger Metrics
var (
	RecordOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRecordOperations,
			Help: HelpTextRecordOperations,
		},
		[]string{LabelOperation},
	)

	AmountRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAmountRecorded,
			Help: HelpTextAmountRecorded,
		},
		[]string{LabelPayment},
	)

	Searches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSearches,
			Help: HelpTextSearches,
		},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameExports,
			Help: HelpTextExports,
		},
		[]string{LabelFormat},
	)
)

// Event and Mirror Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventPublishErrors,
			Help: HelpTextEventPublishErrors,
		},
		[]string{LabelType},
	)

	MirrorSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameMirrorSyncs,
			Help: HelpTextMirrorSyncs,
		},
		[]string{LabelResult},
	)

	MirrorSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameMirrorSweepDuration,
			Help:    HelpTextMirrorSweepDuration,
			Buckets: prometheus.DefBuckets,
		},
	)
)
