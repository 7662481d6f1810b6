// Package tracer sets up OpenTelemetry tracing for vecdocs.
//
// NewClient builds an SDK TracerProvider, optionally exporting over
// OTLP/HTTP, and installs it as the global provider together with the W3C
// trace-context and baggage propagators.
//
// Basic Usage:
//
//	tracerClient, err := tracer.NewClient(tracer.Config{
//	    ServiceName:  "vecdocs",
//	    AppEnv:       "development",
//	    EnableExport: true,
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer tracerClient.Shutdown(ctx)
//
//	ctx, span := tracerClient.StartSpan(ctx, "import-batch")
//	defer span.End()
//	tracerClient.SetAttributes(span, map[string]interface{}{"documents": 250})
//	if err != nil {
//	    tracerClient.RecordErrorOnSpan(span, err)
//	}
//
// *Tracer satisfies collection.Tracer, so collections report one span per
// operation through it:
//
//	manager.WithTracer(tracerClient)
//
// Propagation across processes uses GetCarrier on the sending side and
// SetCarrierOnContext on the receiving side.
//
// FX Module Integration:
//
//	app := fx.New(
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config { return cfg.Tracer }),
//	)
package tracer
