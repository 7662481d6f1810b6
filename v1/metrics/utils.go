package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/vecdocs/v1/observability"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ObserveOperation records an event reported by the embedding pipeline or a
// collection. Embed events also feed the cache lookup counter from their
// cache_hits and cache_misses metadata.
func (m *Metrics) ObserveOperation(ctx observability.OperationContext) {
	status := StatusSuccess
	if ctx.Error != nil {
		status = StatusError
	}
	m.RecordOperation(ctx.Component, ctx.Operation, status, ctx.Duration)
	if ctx.Size > 0 {
		m.operationSize.WithLabelValues(ctx.Component, ctx.Operation).Observe(float64(ctx.Size))
	}

	hits, okHits := count(ctx.Metadata["cache_hits"])
	misses, okMisses := count(ctx.Metadata["cache_misses"])
	if okHits || okMisses {
		m.RecordCacheLookups(ctx.Resource, hits, misses)
	}
}

// RecordOperation counts one operation and observes its duration.
// Example: metrics.RecordOperation("collection", "search", metrics.StatusSuccess, elapsed)
func (m *Metrics) RecordOperation(component, operation, status string, duration time.Duration) {
	m.operationsTotal.WithLabelValues(component, operation, status).Inc()
	m.operationDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// RecordCacheLookups adds embedding cache hits and misses for a model.
func (m *Metrics) RecordCacheLookups(model string, hits, misses int) {
	if hits > 0 {
		m.cacheLookups.WithLabelValues(model, "hit").Add(float64(hits))
	}
	if misses > 0 {
		m.cacheLookups.WithLabelValues(model, "miss").Add(float64(misses))
	}
}

// CreateCounter creates a new CounterVec metric and registers it.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a new HistogramVec metric and registers it.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a new GaugeVec metric and registers it.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := createGaugeVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(gauge)
	return gauge
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

func createGaugeVec(namespace, name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func count(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
