package database

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecdocs/v1/postgres"
)

// FXModule provides database.Client backed by PostgreSQL.
// It includes postgres.FXModule, so the application only supplies a
// postgres.Config (and optionally a postgres.Logger).
//
// Usage:
//
//	app := fx.New(
//	    database.FXModule,
//	    fx.Provide(func() postgres.Config { return cfg }),
//	    fx.Invoke(func(db database.Client) {
//	        // database-agnostic code
//	    }),
//	)
var FXModule = fx.Module("database",
	postgres.FXModule,
	fx.Provide(NewClientWithDI),
)

// DatabaseParams groups the dependencies needed to expose a database client
type DatabaseParams struct {
	fx.In

	Postgres *postgres.Postgres
}

// NewClientWithDI exposes the injected PostgreSQL client as a database.Client.
func NewClientWithDI(params DatabaseParams) Client {
	return NewPostgresClient(params.Postgres)
}
