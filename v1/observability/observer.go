// Package observability defines the hook that vecdocs components use to
// report operations to metrics or tracing backends.
//
// Components accept an Observer through WithObserver and call it once per
// operation. A nil Observer disables reporting.
//
//	pipeline.WithObserver(metricsClient)
package observability

import "time"

// Observer receives one event per completed operation.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "embedding" or "collection"
	Component string

	// Operation is the action, e.g. "upsert", "search", "embed_batch"
	Operation string

	// Resource is the collection name or embedding model
	Resource string

	// SubResource narrows the resource, e.g. the namespace
	SubResource string

	Duration time.Duration
	Error    error

	// Size is the number of documents, texts or rows involved
	Size int64

	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
