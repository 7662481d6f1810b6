package collection

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecdocs/v1/database"
	"github.com/Aleph-Alpha/vecdocs/v1/embedding"
	"github.com/Aleph-Alpha/vecdocs/v1/observability"
	"github.com/Aleph-Alpha/vecdocs/v1/tracer"
)

// FXModule provides *Manager.
//
// It needs a database.Client (database.FXModule provides one). The
// embedding pipeline, tracer, logger, observer and Config are picked up when
// present.
//
//	app := fx.New(
//	    database.FXModule,
//	    embedding.FXModule,
//	    tracer.FXModule,
//	    collection.FXModule,
//	    fx.Invoke(func(m *collection.Manager) { ... }),
//	)
var FXModule = fx.Module("collection",
	fx.Provide(NewManagerWithDI),
)

// ManagerParams groups the dependencies of a Manager.
type ManagerParams struct {
	fx.In

	Client   database.Client
	Config   Config                 `optional:"true"`
	Pipeline *embedding.Pipeline    `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewManagerWithDI builds a Manager from injected dependencies.
func NewManagerWithDI(p ManagerParams) (*Manager, error) {
	var embedder Embedder
	if p.Pipeline != nil {
		embedder = p.Pipeline
	}

	m, err := NewManager(p.Config, p.Client, embedder)
	if err != nil {
		return nil, err
	}
	if p.Tracer != nil {
		m.WithTracer(p.Tracer)
	}
	return m.WithLogger(p.Logger).WithObserver(p.Observer), nil
}
