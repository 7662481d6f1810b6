// Package database defines the document store interface that vecdocs
// collections are written against.
//
// # Philosophy
//
// The database package follows Go's "accept interfaces, return structs" principle:
//   - Collections depend on the database.Client interface
//   - postgres.NewPostgres returns the concrete *postgres.Postgres and
//     NewPostgresClient adapts it
//   - Tests use the generated MockClient
//
// The interface is small: a statement with bound parameters, a batched
// statement for writes, and a transaction for statements that must apply
// together (dropping a collection and its registry entry).
//
// # Basic Usage
//
//	pg, err := postgres.NewPostgres(cfg, log)
//	if err != nil {
//	    return err
//	}
//	client := database.NewPostgresClient(pg)
//
//	rows, err := client.Execute(ctx, "SELECT id FROM docs WHERE namespace = ?", []any{"default"})
//	affected, err := client.ExecuteMany(ctx,
//	    "INSERT INTO docs (namespace, id) VALUES (?, ?)",
//	    [][]any{{"default", "a"}, {"default", "b"}},
//	)
//	err = client.Transaction(ctx, func(tx database.Client) error {
//	    _, err := tx.Execute(ctx, "DELETE FROM docs WHERE namespace = ?", []any{"old"})
//	    return err
//	})
//
// # Using with Fx Dependency Injection
//
//	app := fx.New(
//	    logger.FXModule,
//	    database.FXModule, // includes postgres.FXModule
//	    fx.Provide(func() postgres.Config { return cfg }),
//	    fx.Invoke(func(db database.Client) {
//	        // use db
//	    }),
//	)
//
// # Testing
//
//	ctrl := gomock.NewController(t)
//	db := database.NewMockClient(ctrl)
//	db.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return([]database.Row{{"count": int64(3)}}, nil)
package database
