package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry holds the prometheus collectors for the aggregation pipeline.
// A nil *Telemetry is a valid no-op recorder, which keeps tests quiet.
type Telemetry struct {
	aggregations    *prometheus.CounterVec
	adapterRequests *prometheus.CounterVec
	adapterDuration *prometheus.HistogramVec
	generations     *prometheus.CounterVec
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guidely",
			Name:      "aggregations_total",
			Help:      "Guide aggregations by cache outcome.",
		}, []string{"result"}),
		adapterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guidely",
			Name:      "adapter_requests_total",
			Help:      "Source adapter invocations by outcome.",
		}, []string{"source", "status"}),
		adapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "guidely",
			Name:      "adapter_duration_seconds",
			Help:      "Source adapter latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guidely",
			Name:      "ai_generations_total",
			Help:      "AI guide generations by outcome.",
		}, []string{"status"}),
	}
	reg.MustRegister(t.aggregations, t.adapterRequests, t.adapterDuration, t.generations)
	return t
}

// RecordAggregation counts one aggregation by cache outcome.
func (t *Telemetry) RecordAggregation(fromCache bool) {
	if t == nil {
		return
	}
	result := "miss"
	if fromCache {
		result = "hit"
	}
	t.aggregations.WithLabelValues(result).Inc()
}

// RecordAdapter counts one adapter invocation and its latency.
func (t *Telemetry) RecordAdapter(source, status string, d time.Duration) {
	if t == nil {
		return
	}
	t.adapterRequests.WithLabelValues(source, status).Inc()
	t.adapterDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordGeneration counts one AI generation attempt.
func (t *Telemetry) RecordGeneration(status string) {
	if t == nil {
		return
	}
	t.generations.WithLabelValues(status).Inc()
}
