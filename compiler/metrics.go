package compiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus collectors for reader and extension activity.
// A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	parses         prometheus.Counter
	refResolutions *prometheus.CounterVec
	extensionCalls *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apicompiler_cache_lookups_total",
				Help: "Total number of cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apicompiler_fetches_total",
				Help: "Total number of document fetches by scheme and result",
			},
			[]string{"scheme", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apicompiler_fetch_duration_seconds",
				Help:    "Duration of document fetches in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 100µs to ~3s
			},
			[]string{"scheme"},
		),
		parses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "apicompiler_parses_total",
				Help: "Total number of documents parsed into node trees",
			},
		),
		refResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apicompiler_ref_resolutions_total",
				Help: "Total number of $ref resolutions by result",
			},
			[]string{"result"},
		),
		extensionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apicompiler_extension_calls_total",
				Help: "Total number of extension handler invocations by handler and result",
			},
			[]string{"handler", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.cacheLookups,
			m.fetches,
			m.fetchDuration,
			m.parses,
			m.refResolutions,
			m.extensionCalls,
		)
	}
	return m
}

// RecordCacheLookup records a hit or miss on the "file" or "info" cache.
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordFetch records a completed fetch.
func (m *Metrics) RecordFetch(scheme string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(scheme, resultLabel(err)).Inc()
	m.fetchDuration.WithLabelValues(scheme).Observe(d.Seconds())
}

// RecordParse records one parse of raw bytes into a tree.
func (m *Metrics) RecordParse() {
	if m == nil {
		return
	}
	m.parses.Inc()
}

// RecordRefResolution records the outcome of a $ref lookup.
func (m *Metrics) RecordRefResolution(err error) {
	if m == nil {
		return
	}
	m.refResolutions.WithLabelValues(resultLabel(err)).Inc()
}

// RecordExtensionCall records one handler invocation. result is one of
// "handled", "declined" or "error".
func (m *Metrics) RecordExtensionCall(handler, result string) {
	if m == nil {
		return
	}
	m.extensionCalls.WithLabelValues(handler, result).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
