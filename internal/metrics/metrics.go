// Package metrics instruments the compute dispatcher with Prometheus
// collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vk/plugflow/internal/nodeerr"
)

// Recorder counts compute passes, cache hits and failures per node type.
// A nil *Recorder records nothing.
type Recorder struct {
	passes       *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	poisoned     *prometheus.GaugeVec
}

// New registers the dispatcher collectors on reg. Pass
// prometheus.DefaultRegisterer to expose them on the process-wide handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plugflow_compute_passes_total",
			Help: "Committed compute passes by node type",
		}, []string{"node_type"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plugflow_cache_hits_total",
			Help: "Requests answered from a clean cached value",
		}, []string{"node_type"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plugflow_request_failures_total",
			Help: "Failed requests by node type and error kind",
		}, []string{"node_type", "kind"}),
		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plugflow_compute_pass_duration_seconds",
			Help:    "Time spent inside evaluators",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"node_type"}),
		poisoned: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plugflow_node_type_poisoned",
			Help: "1 when a node type is disabled by a fatal evaluator error",
		}, []string{"node_type"}),
	}
}

// Pass records a committed compute pass.
func (r *Recorder) Pass(nodeType string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.passes.WithLabelValues(nodeType).Inc()
	r.passDuration.WithLabelValues(nodeType).Observe(elapsed.Seconds())
}

// CacheHit records a request served without evaluation.
func (r *Recorder) CacheHit(nodeType string) {
	if r == nil {
		return
	}
	r.cacheHits.WithLabelValues(nodeType).Inc()
}

// Failure records a failed request, labelled by error kind.
func (r *Recorder) Failure(nodeType string, err error) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(nodeType, nodeerr.KindName(err)).Inc()
}

// Poisoned records that nodeType was disabled.
func (r *Recorder) Poisoned(nodeType string) {
	if r == nil {
		return
	}
	r.poisoned.WithLabelValues(nodeType).Set(1)
}
