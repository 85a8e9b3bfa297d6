// Package metrics exposes sync loop counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ovpnsync/internal/types"
)

const namespace = "ovpnsync"

// Metrics holds the sync loop collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	cycles        *prometheus.CounterVec
	changes       prometheus.Counter
	publishes     *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
	cycleDuration prometheus.Histogram
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Sync cycles by outcome kind.",
		}, []string{"outcome"}),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_changes_total",
			Help:      "Rewrites of the recorded remote address.",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Publish attempts by result.",
		}, []string{"result"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful cycle.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of sync cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.reg.MustRegister(
		m.cycles,
		m.changes,
		m.publishes,
		m.lastSuccess,
		m.cycleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordCycle records a finished cycle. kind is KindNone on success.
func (m *Metrics) RecordCycle(kind types.ErrorKind, changed bool, finished time.Time, took time.Duration) {
	if m == nil {
		return
	}
	outcome := string(kind)
	if kind == types.KindNone {
		outcome = "success"
		m.lastSuccess.Set(float64(finished.Unix()))
	}
	m.cycles.WithLabelValues(outcome).Inc()
	if changed {
		m.changes.Inc()
	}
	m.cycleDuration.Observe(took.Seconds())
}

// RecordPublish records a copy, or a skip when copied is false
func (m *Metrics) RecordPublish(copied bool) {
	if m == nil {
		return
	}
	if copied {
		m.publishes.WithLabelValues("copied").Inc()
	} else {
		m.publishes.WithLabelValues("skipped").Inc()
	}
}

// Handler serves the registry in the exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
