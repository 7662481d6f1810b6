// Package logger provides the structured JSON logger used across vecdocs.
//
// *LoggerClient wraps a zap.Logger. Entries carry an ISO8601 timestamp, the
// level in capitals, the caller, the process id and the configured service
// name. Every method takes a message, an optional error and optional field
// maps:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Debug, ServiceName: "vecdocs"})
//	log.Info("[Collection] created", nil, map[string]interface{}{"collection": "docs"})
//	log.Error("[Postgres] connection lost", err, nil)
//
// The postgres, embedding, tracer, metrics and collection packages each
// declare the subset of Logger they need, so a *LoggerClient can be passed
// to all of them.
//
// # Tracing Integration
//
// With EnableTracing set, the *WithContext methods add trace_id and span_id
// from the active OpenTelemetry span in ctx.
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule, // provides *LoggerClient and logger.Logger
//	    fx.Provide(func() logger.Config {
//	        return logger.Config{Level: logger.Info, ServiceName: "vecdocs"}
//	    }),
//	)
//
// The logger is synced when the application stops.
package logger
