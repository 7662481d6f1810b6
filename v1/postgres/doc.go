// Package postgres backs database.Client with PostgreSQL through GORM and
// the pgx driver.
//
// # Overview
//
// Postgres wraps a pooled *gorm.DB and adds:
//
//   - Execute: one statement with ? placeholders, rows returned as maps
//   - ExecuteMany: one statement per argument set, all in one transaction
//   - Transaction: run a callback against a transaction-scoped client
//   - TranslateError / IsRetryable: SQLSTATE-based error classification
//   - A health monitor that pings every 10 seconds and a reconnect loop that
//     swaps in a fresh pool when the ping fails
//
// # Basic Usage
//
//	pg, err := postgres.NewPostgres(postgres.Config{
//	    Connection: postgres.Connection{
//	        Host:     "localhost",
//	        Port:     "5432",
//	        User:     "vecdocs",
//	        Password: "secret",
//	        DbName:   "vecdocs",
//	        SSLMode:  "disable",
//	    },
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer pg.GracefulShutdown()
//
//	rows, err := pg.Execute(ctx, "SELECT count(*) AS n FROM docs WHERE namespace = ?", []any{"default"})
//
// # Vectors
//
// The server needs the pgvector extension. Vectors travel as their text form
// ("[1,2,3]") cast with ?::vector and are read back with embedding::text.
//
// # Error Handling
//
//	_, err := pg.ExecuteMany(ctx, insert, sets)
//	switch {
//	case errors.Is(err, postgres.ErrDuplicateKey):
//	case errors.Is(err, postgres.ErrInvalidData):   // e.g. vector dimension mismatch
//	case postgres.IsRetryable(err):
//	}
//
// # Fx
//
//	app := fx.New(
//	    postgres.FXModule,
//	    fx.Provide(func() postgres.Config { return cfg }),
//	)
//
// The lifecycle hook starts MonitorConnection and RetryConnection and closes
// the pool on stop.
package postgres
