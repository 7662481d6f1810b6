package database

import (
	"context"

	"github.com/Aleph-Alpha/vecdocs/v1/postgres"
)

// NewPostgresClient exposes pg as a Client.
func NewPostgresClient(pg *postgres.Postgres) Client {
	return &postgresClient{Postgres: pg}
}

type postgresClient struct {
	*postgres.Postgres
}

// Transaction runs fn on a client bound to one PostgreSQL transaction.
func (c *postgresClient) Transaction(ctx context.Context, fn func(tx Client) error) error {
	return c.Postgres.Transaction(ctx, func(tx *postgres.Postgres) error {
		return fn(&postgresClient{Postgres: tx})
	})
}
