package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Tracer from a Config and shuts the provider down when
// the application stops, flushing pending spans.
//
//	app := fx.New(
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config { return cfg.Tracer }),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewClientWithDI. Logger is optional.
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Tracer from injected dependencies.
func NewClientWithDI(p TracerParams) (*Tracer, error) {
	return NewClient(p.Config, p.Logger)
}

// RegisterTracerLifecycle shuts the tracer down on application stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("[Tracer] shutting down", nil)
			return tracer.Shutdown(ctx)
		},
	})
}
