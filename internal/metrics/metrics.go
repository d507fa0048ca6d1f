// Package metrics exposes dispatcher activity as Prometheus metrics.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	runs     *prometheus.CounterVec
	rejected *prometheus.CounterVec
	running  *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	alerts   *prometheus.CounterVec
	reloads  *prometheus.CounterVec
}

// New creates Metrics on a fresh registry, which also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskopy",
			Name:      "runs_total",
			Help:      "Finished task runs, by caller and outcome.",
		}, []string{"task", "caller", "outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskopy",
			Name:      "runs_rejected_total",
			Help:      "Run requests that did not start, by reason.",
		}, []string{"task", "reason"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskopy",
			Name:      "running",
			Help:      "Runs currently in flight.",
		}, []string{"task"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskopy",
			Name:      "run_duration_seconds",
			Help:      "Duration of finished task runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"task"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskopy",
			Name:      "alerts_total",
			Help:      "Alerts raised after a task exceeded its error threshold.",
		}, []string{"task"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskopy",
			Name:      "reloads_total",
			Help:      "Taskfile reloads, by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		m.runs, m.rejected, m.running, m.duration, m.alerts, m.reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RunStarted(task string) {
	if m == nil {
		return
	}
	m.running.WithLabelValues(task).Inc()
}

// RunFinished records a finished run. outcome is "ok" or "error".
func (m *Metrics) RunFinished(task, caller, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.running.WithLabelValues(task).Dec()
	m.runs.WithLabelValues(task, caller, outcome).Inc()
	m.duration.WithLabelValues(task).Observe(d.Seconds())
}

func (m *Metrics) Rejected(task, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(task, reason).Inc()
}

func (m *Metrics) Alerted(task string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(task).Inc()
}

func (m *Metrics) Reloaded(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.reloads.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
