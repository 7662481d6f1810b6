package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedClient(tracing bool) (*LoggerClient, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &LoggerClient{Zap: zap.New(core), tracingEnabled: tracing}, logs
}

func TestLevels(t *testing.T) {
	client, logs := newObservedClient(false)
	boom := errors.New("boom")

	client.Debug("debug", nil)
	client.Info("info", nil, map[string]interface{}{"collection": "docs"})
	client.Warn("warn", nil)
	client.Error("error", boom, map[string]interface{}{"a": 1}, map[string]interface{}{"a": 2})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "docs", entries[1].ContextMap()["collection"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)

	fields := entries[3].ContextMap()
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, int64(2), fields["a"])
	assert.Len(t, entries[3].Context, 2)
}

func TestWithContext(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	ctx, span := provider.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	client, logs := newObservedClient(true)
	client.InfoWithContext(ctx, "traced", nil)
	client.WarnWithContext(context.Background(), "untraced", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0].ContextMap()["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entries[0].ContextMap()["span_id"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")

	disabled, logs := newObservedClient(false)
	disabled.ErrorWithContext(ctx, "no tracing", nil)
	assert.NotContains(t, logs.AllUntimed()[0].ContextMap(), "trace_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(Debug))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(Info))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(Warning))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewLoggerClient(t *testing.T) {
	client := NewLoggerClient(Config{Level: Warning, ServiceName: "vecdocs"})
	require.NotNil(t, client.Zap)
	assert.False(t, client.Zap.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, client.Zap.Core().Enabled(zapcore.WarnLevel))

	nop := NewNop()
	nop.Info("discarded", nil)
	nop.InfoWithContext(context.Background(), "discarded", nil)
}

func TestFXModule(t *testing.T) {
	var log Logger
	app := fxtest.New(t,
		fx.Provide(func() Config { return Config{Level: Error} }),
		FXModule,
		fx.Populate(&log),
	)
	app.RequireStart()
	require.NotNil(t, log)
	app.RequireStop()
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{Level: Warning}.Validate())
	assert.Error(t, Config{Level: "warn"}.Validate())
}
