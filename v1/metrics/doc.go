// Package metrics exposes vecdocs operations to Prometheus.
//
// *Metrics implements observability.Observer. Pass it to the embedding
// pipeline and the collection manager with WithObserver, or let FXModule
// provide it as the Observer for both. Every reported operation updates:
//
//	vecdocs_operations_total{component, operation, status}
//	vecdocs_operation_duration_seconds{component, operation}
//	vecdocs_operation_size{component, operation}
//
// Embed events additionally update
//
//	vecdocs_embedding_cache_lookups_total{model, result="hit"|"miss"}
//
// All metrics live in a dedicated registry and carry a constant service
// label. The registry is served at /metrics on Config.Address.
//
// # Direct Usage
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:                 ":9090",
//	    ServiceName:             "vecdocs",
//	    EnableDefaultCollectors: true,
//	})
//	pipeline.WithObserver(m)
//	manager.WithObserver(m)
//	go m.Server.ListenAndServe()
//
// Additional metrics can be registered in the same registry with
// CreateCounter, CreateHistogram and CreateGauge.
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    embedding.FXModule,
//	    collection.FXModule,
//	    // ...
//	)
//
// The server starts with the application and is shut down gracefully when
// it stops.
package metrics
