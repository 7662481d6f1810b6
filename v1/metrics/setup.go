package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing application metrics.
type Metrics struct {
	// Server exposes the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	namespace  string
	registerer prometheus.Registerer

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationSize     *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
}

// NewMetrics sets up a dedicated registry with the operation metrics,
// wraps it with a constant service label and creates the HTTP server.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:                 ":9090",
//	    ServiceName:             "vecdocs",
//	    EnableDefaultCollectors: true,
//	})
//	manager.WithObserver(m)
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	cfg = cfg.withDefaults()

	registry := prometheus.NewRegistry()

	// Every metric carries service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		namespace:  cfg.Namespace,
		registerer: wrappedRegistry,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "operations_total",
		"Total number of operations by component, operation and status",
		[]string{"component", "operation", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "operation_duration_seconds",
		"Duration of operations in seconds",
		[]string{"component", "operation"}, prometheus.DefBuckets)
	m.operationSize = createHistogramVec(cfg.Namespace, "operation_size",
		"Number of documents, texts or rows handled per operation",
		[]string{"component", "operation"}, prometheus.ExponentialBuckets(1, 4, 8))
	m.cacheLookups = createCounterVec(cfg.Namespace, "embedding_cache_lookups_total",
		"Embedding cache lookups by model and result",
		[]string{"model", "result"})

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.operationSize,
		m.cacheLookups,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
