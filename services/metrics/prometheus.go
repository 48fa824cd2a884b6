// Package metricsvc exposes workflow counters to prometheus.
package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/childclub/backend/core"
)

// Recorder counts workflow events as childclub_events_total{resource, action}.
type Recorder struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	requests *prometheus.HistogramVec
}

var _ core.EventRecorder = (*Recorder)(nil)

func NewRecorder(conf *core.Config) *Recorder {
	labels := prometheus.Labels{"env": conf.Env, "build": conf.Build}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "childclub",
			Name:        "events_total",
			Help:        "Workflow events by resource and action.",
			ConstLabels: labels,
		}, []string{"resource", "action"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "childclub",
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latencies by route and status code.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	r.registry.MustRegister(
		r.events,
		r.requests,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) RecordEvent(resource, action string) {
	r.events.WithLabelValues(resource, action).Inc()
}

// ObserveRequest records the latency of one served request.
func (r *Recorder) ObserveRequest(method, route, code string, seconds float64) {
	r.requests.WithLabelValues(method, route, code).Observe(seconds)
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mostly to tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
