package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values shared by backup and restore counters.
const (
	ResultCreated = "created"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
	ResultOK      = "ok"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Backup metrics
	BackupsTotal   *prometheus.CounterVec
	BackupDuration prometheus.Histogram

	// Retention metrics
	EvictionsTotal   prometheus.Counter
	EvictionFailures prometheus.Counter

	// Debounce metrics
	DebounceScheduled prometheus.Counter
	DebounceCollapsed prometheus.Counter

	// Copy channel metrics
	CopyFailures    prometheus.Counter
	CopyRecreations prometheus.Counter

	// Restore metrics
	RestoresTotal *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates the registry and registers every instrument,
// including Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		BackupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "backup",
			Name:      "attempts_total",
			Help:      "Backup attempts by result",
		}, []string{"result"}),
		BackupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatvault",
			Subsystem: "backup",
			Name:      "duration_seconds",
			Help:      "End-to-end backup attempt duration",
			Buckets:   prometheus.DefBuckets,
		}),

		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "retention",
			Name:      "evictions_total",
			Help:      "Records evicted by the per-conversation cap",
		}),
		EvictionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "retention",
			Name:      "eviction_failures_total",
			Help:      "Evictions that failed and were left for the next pass",
		}),

		DebounceScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "debounce",
			Name:      "scheduled_total",
			Help:      "Debounced backups scheduled",
		}),
		DebounceCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "debounce",
			Name:      "collapsed_total",
			Help:      "Pending debounced backups superseded before firing",
		}),

		CopyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "copy",
			Name:      "channel_failures_total",
			Help:      "Copy channel failures that forced fail-closed mode",
		}),
		CopyRecreations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "copy",
			Name:      "channel_recreations_total",
			Help:      "Copy channel worker recreations",
		}),

		RestoresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "restore",
			Name:      "attempts_total",
			Help:      "Restore attempts by result",
		}, []string{"result"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.BackupsTotal,
		r.BackupDuration,
		r.EvictionsTotal,
		r.EvictionFailures,
		r.DebounceScheduled,
		r.DebounceCollapsed,
		r.CopyFailures,
		r.CopyRecreations,
		r.RestoresTotal,
		r.RequestsTotal,
		r.RequestDuration,
	)

	return r
}

// Prometheus exposes the underlying registry for components that
// register their own instruments, such as the store.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
