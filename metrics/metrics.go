// Package metrics exposes Prometheus counters for the report workflow and
// the gateway queue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adwords-report/report"
)

// Metrics implements report.Recorder. Each instance owns its registry so
// several can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	polls         *prometheus.CounterVec
	downloads     *prometheus.CounterVec
	downloadBytes *prometheus.HistogramVec
	queued        prometheus.Gauge
	runs          *prometheus.CounterVec
}

var _ report.Recorder = (*Metrics)(nil)

// New registers the collectors under the given namespace, e.g.
// "adwords_report".
func New(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_status_polls_total",
			Help:      "Report job status queries by observed status.",
		},
		[]string{"status"},
	)
	m.downloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Report downloads by flow and result.",
		},
		[]string{"variant", "result"},
	)
	m.downloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_size_bytes",
			Help:      "Size of downloaded reports.",
			Buckets:   prometheus.ExponentialBuckets(1024, 10, 7), // 1KB .. 1GB
		},
		[]string{"variant"},
	)
	m.queued = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gateway_queue_length",
		Help:      "Report requests waiting for a worker.",
	})
	m.runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_runs_total",
			Help:      "Finished gateway report runs by final status.",
		},
		[]string{"status"},
	)

	m.registry.MustRegister(
		m.polls, m.downloads, m.downloadBytes, m.queued, m.runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObservePoll(status report.Status) {
	m.polls.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ObserveDownload(variant string, size int, err error) {
	result := "ok"
	switch {
	case err == nil:
		m.downloadBytes.WithLabelValues(variant).Observe(float64(size))
	case report.IsTransient(err):
		result = "connection_error"
	default:
		result = "error"
	}
	m.downloads.WithLabelValues(variant, result).Inc()
}

// SetQueueLength records the number of waiting gateway requests.
func (m *Metrics) SetQueueLength(n int) {
	m.queued.Set(float64(n))
}

// ObserveRun counts a finished gateway run.
func (m *Metrics) ObserveRun(status string) {
	m.runs.WithLabelValues(status).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
