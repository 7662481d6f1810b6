package collection

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/vecdocs/v1/observability"
)

const instrumentationName = "github.com/Aleph-Alpha/vecdocs/v1/collection"

// globalTracer uses the process-wide OpenTelemetry provider. It is the
// fallback when no Tracer is configured.
type globalTracer struct{}

func (globalTracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name)
}

func (globalTracer) RecordErrorOnSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// instrumentation bundles the logging, tracing and observer hooks shared by
// Manager and Collection.
type instrumentation struct {
	logger   Logger
	tracer   Tracer
	observer observability.Observer
}

func newInstrumentation() instrumentation {
	return instrumentation{logger: nopLogger{}, tracer: globalTracer{}}
}

// operation tracks one call. finish records the outcome on the span, the
// observer and the log.
type operation struct {
	inst      instrumentation
	span      trace.Span
	start     time.Time
	name      string
	resource  string
	namespace string
}

func (i instrumentation) begin(ctx context.Context, name, resource, namespace string) (context.Context, *operation) {
	ctx, span := i.tracer.StartSpan(ctx, "vecdocs."+name)
	span.SetAttributes(
		attribute.String("vecdocs.collection", resource),
		attribute.String("vecdocs.operation", name),
	)
	if namespace != "" {
		span.SetAttributes(attribute.String("vecdocs.namespace", namespace))
	}
	return ctx, &operation{
		inst:      i,
		span:      span,
		start:     time.Now(),
		name:      name,
		resource:  resource,
		namespace: namespace,
	}
}

func (o *operation) finish(err error, size int64) {
	duration := time.Since(o.start)

	o.span.SetAttributes(attribute.Int64("vecdocs.size", size))
	o.inst.tracer.RecordErrorOnSpan(o.span, err)
	o.span.End()

	fields := map[string]interface{}{
		"collection": o.resource,
		"operation":  o.name,
		"size":       size,
		"duration":   duration.String(),
	}
	if o.namespace != "" {
		fields["namespace"] = o.namespace
	}
	if err != nil {
		o.inst.logger.Error("[Collection] operation failed", err, fields)
	} else {
		o.inst.logger.Debug("[Collection] operation completed", nil, fields)
	}

	if o.inst.observer != nil {
		o.inst.observer.ObserveOperation(observability.OperationContext{
			Component:   "collection",
			Operation:   o.name,
			Resource:    o.resource,
			SubResource: o.namespace,
			Duration:    duration,
			Error:       err,
			Size:        size,
		})
	}
}
