// Package metrics exposes Prometheus counters for the bot and serves them with
// a health endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	registry       *prometheus.Registry
	updates        *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	appendDuration prometheus.Histogram
	rateLimited    prometheus.Counter
	catalogReloads *prometheus.CounterVec
}

// New registers the bot's collectors on a fresh registry, so tests can build
// as many as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetbot_updates_total",
			Help: "Telegram updates handled, by kind.",
		}, []string{"kind"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetbot_submissions_total",
			Help: "Rows sent to spreadsheets, by table and outcome.",
		}, []string{"table", "status"}),
		appendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sheetbot_append_duration_seconds",
			Help:    "Latency of spreadsheet append calls.",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheetbot_rate_limited_total",
			Help: "Updates dropped by the per-user rate limiter.",
		}),
		catalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetbot_catalog_reloads_total",
			Help: "Catalog reload attempts, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.updates,
		m.submissions,
		m.appendDuration,
		m.rateLimited,
		m.catalogReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveUpdate(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSubmission(table, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(table, status).Inc()
	m.appendDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) ObserveCatalogReload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.catalogReloads.WithLabelValues(result).Inc()
}
