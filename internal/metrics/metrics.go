package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the application's Prometheus collectors.
type Registry struct {
	reg *prometheus.Registry

	// FetchTotal counts data source calls by source, kind and result.
	FetchTotal *prometheus.CounterVec
	// FetchDuration observes data source latency by source.
	FetchDuration *prometheus.HistogramVec
	// MissingSeries counts symbols dropped for missing data at the fetch boundary.
	MissingSeries prometheus.Counter
	// Requests counts core requests by operation.
	Requests *prometheus.CounterVec
	// JobRuns counts scheduled job executions by job and result.
	JobRuns *prometheus.CounterVec
}

// New creates a registry with all collectors registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolink_fetch_total",
			Help: "Data source calls by source, kind and result.",
		}, []string{"source", "kind", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolink_fetch_duration_seconds",
			Help:    "Data source call latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		MissingSeries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolink_missing_series_total",
			Help: "Symbols treated as missing data after a failed fetch.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolink_requests_total",
			Help: "Core requests by operation.",
		}, []string{"op"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolink_job_runs_total",
			Help: "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}
	r.reg.MustRegister(
		r.FetchTotal, r.FetchDuration, r.MissingSeries, r.Requests, r.JobRuns,
		collectors.NewGoCollector(),
	)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying gatherer, for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
