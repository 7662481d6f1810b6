package database

import "context"

// Row is one result row keyed by column name.
type Row = map[string]any

// Client is the document store interface consumed by vecdocs collections.
//
// Statements use ? placeholders for bound parameters. Implementations must
// support JSONB columns, the pgvector vector type and its distance operators.
//
// Implementations:
//   - NewPostgresClient adapts *postgres.Postgres
//
//go:generate mockgen -source=interface.go -destination=mock_client.go -package=database
type Client interface {
	// Execute runs one statement with bound parameters and returns the rows
	// it produces. Statements without a result set return no rows.
	Execute(ctx context.Context, statement string, args []any) ([]Row, error)

	// ExecuteMany runs the same statement once per argument set, atomically,
	// and returns the total number of affected rows.
	ExecuteMany(ctx context.Context, statement string, argSets [][]any) (int64, error)

	// Transaction runs fn with a Client bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Client) error) error
}
