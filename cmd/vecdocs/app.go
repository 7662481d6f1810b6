package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecdocs/v1/collection"
	"github.com/Aleph-Alpha/vecdocs/v1/database"
	"github.com/Aleph-Alpha/vecdocs/v1/embedding"
	"github.com/Aleph-Alpha/vecdocs/v1/logger"
	"github.com/Aleph-Alpha/vecdocs/v1/metrics"
	"github.com/Aleph-Alpha/vecdocs/v1/postgres"
	"github.com/Aleph-Alpha/vecdocs/v1/tracer"
)

const lifecycleTimeout = 30 * time.Second

// appOptions assembles the fx graph for cfg. The embedding pipeline is only
// wired when an endpoint is configured, and the metrics server only when
// enabled.
func appOptions(cfg *Config) fx.Option {
	embeddingCfg := cfg.Embedding

	opts := []fx.Option{
		fx.NopLogger,
		fx.Supply(
			cfg.Postgres,
			cfg.Collection,
			cfg.Logger,
			cfg.Tracer,
		),
		logger.FXModule,
		fx.Provide(
			func(l *logger.LoggerClient) postgres.Logger { return l },
			func(l *logger.LoggerClient) tracer.Logger { return l },
			func(l *logger.LoggerClient) collection.Logger { return l },
		),
		tracer.FXModule,
		database.FXModule,
		collection.FXModule,
	}

	if embeddingCfg.Endpoint != "" {
		opts = append(opts,
			fx.Supply(&embeddingCfg),
			fx.Provide(
				fx.Annotate(embedding.NewInferenceProvider, fx.As(new(embedding.Provider))),
				func(l *logger.LoggerClient) embedding.Logger { return l },
			),
			embedding.PipelineModule,
		)
	}

	if cfg.Metrics.Enabled {
		opts = append(opts,
			fx.Supply(cfg.Metrics.Config),
			fx.Provide(func(l *logger.LoggerClient) metrics.Logger { return l }),
			metrics.FXModule,
		)
	}

	return fx.Options(opts...)
}

// withManager starts the application, runs fn and stops the application.
func withManager(ctx context.Context, cfg *Config, fn func(context.Context, *collection.Manager) error) (err error) {
	var manager *collection.Manager
	app := fx.New(appOptions(cfg), fx.Populate(&manager))
	if err := app.Err(); err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("stopping application: %w", stopErr)
		}
	}()

	return fn(ctx, manager)
}
