package embedding

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecdocs/v1/observability"
)

// FXModule wires the embedding system into Fx.
//
// It provides:
//   - *Config                (NewConfig)
//   - Provider               (NewInferenceProvider)
//   - *Pipeline              (NewPipelineWithParams)
//   - Lifecycle hook         (RegisterEmbeddingLifecycle)
//
// Applications with their own Provider can use PipelineModule instead and
// supply the Provider themselves.
var FXModule = fx.Module(
	"embedding",

	fx.Provide(
		NewConfig, // -> *Config
		fx.Annotate(
			NewInferenceProvider,
			fx.As(new(Provider)),
		),
	),

	pipelineOptions,
)

// PipelineModule provides *Pipeline from an externally supplied *Config and Provider.
var PipelineModule = fx.Module(
	"embedding-pipeline",
	pipelineOptions,
)

var pipelineOptions = fx.Options(
	fx.Provide(NewPipelineWithParams),
	fx.Invoke(RegisterEmbeddingLifecycle),
)

// PipelineParams groups the dependencies of a Pipeline. Logger and Observer are optional.
type PipelineParams struct {
	fx.In

	Config   *Config
	Provider Provider
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewPipelineWithParams builds a Pipeline from injected dependencies.
func NewPipelineWithParams(p PipelineParams) (*Pipeline, error) {
	pipeline, err := NewPipeline(p.Config, p.Provider)
	if err != nil {
		return nil, err
	}
	return pipeline.WithLogger(p.Logger).WithObserver(p.Observer), nil
}

// -------------------------------------------------------
// Lifecycle hook
// -------------------------------------------------------

// RegisterEmbeddingLifecycle ensures that the Pipeline (and its provider)
// are properly cleaned up on application shutdown.
func RegisterEmbeddingLifecycle(lc fx.Lifecycle, pipeline *Pipeline) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pipeline.Close()
		},
	})
}
