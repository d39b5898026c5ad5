// Package metrics provides the Prometheus collectors for crawl runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace is the namespace for all metrics.
const MetricsNamespace = "webetl"

// Fetch failure stages.
const (
	StageNavigate = "navigate"
	StageExtract  = "extract"
)

// Metrics holds the crawl collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PagesExtracted     *prometheus.CounterVec
	FetchFailures      *prometheus.CounterVec
	NavigationAborts   *prometheus.CounterVec
	URLsSkipped        *prometheus.CounterVec
	RunDurationSeconds *prometheus.HistogramVec
	LastRunTimestamp   *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors on reg, or on the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PagesExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "pages_extracted_total",
			Help:      "Pages successfully extracted and recorded in the fetch ledger",
		}, []string{"source"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "fetch_failures_total",
			Help:      "Pages that could not be fetched or parsed",
		}, []string{"stage"}),
		NavigationAborts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "navigation_aborts_total",
			Help:      "Jobs whose navigation chain discovered no URLs",
		}, []string{"source"}),
		URLsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "urls_skipped_total",
			Help:      "Final URLs skipped because the source already fetched them",
		}, []string{"source"}),
		RunDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one job's navigate and dispatch",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"source"}),
		LastRunTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run per source",
		}, []string{"source"}),
	}
}

// PageExtracted counts one recorded page for source.
func (m *Metrics) PageExtracted(source string) {
	if m == nil {
		return
	}
	m.PagesExtracted.WithLabelValues(source).Inc()
}

// FetchFailed counts one soft failure in stage.
func (m *Metrics) FetchFailed(stage string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(stage).Inc()
}

// NavigationAborted counts a navigation chain that ran dry.
func (m *Metrics) NavigationAborted(source string) {
	if m == nil {
		return
	}
	m.NavigationAborts.WithLabelValues(source).Inc()
}

// Skipped counts n already-fetched URLs for source.
func (m *Metrics) Skipped(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.URLsSkipped.WithLabelValues(source).Add(float64(n))
}

// RunFinished records a completed run of source that started at start.
func (m *Metrics) RunFinished(source string, start time.Time) {
	if m == nil {
		return
	}
	m.RunDurationSeconds.WithLabelValues(source).Observe(time.Since(start).Seconds())
	m.LastRunTimestamp.WithLabelValues(source).SetToCurrentTime()
}
