// Package db manages the PostgreSQL database of a rapid application.
//
// [Database] wraps a [github.com/jackc/pgx/v5/pgxpool] pool and adds the
// lifecycle operations the application orchestrator drives:
//
//   - Start creates the database when it does not exist yet (SQLSTATE 3D000)
//     and opens the pool, retrying while the server boots
//   - Migrate and Rollback run goose SQL migrations ([github.com/pressly/goose/v3])
//   - Drop deletes the database, except in production
//   - Stop closes the pool and, with DropWhenFinished, drops the database
//
// # Configuration
//
// [Config] is decoded from the "database" section of the application config:
//
//	database:
//	  name: rapid_example
//	  user: postgres
//	  host: localhost
//	  migrationsDir: migrations
//	  randomizeTestName: true
//	  dropWhenFinished: true
//
// In the test environment [Config.ForTest] points the config at
// "<name>_test", or at a randomized name so test runs stay isolated.
//
// # Usage
//
//	database := db.New(cfg,
//	    db.WithEnv("development"),
//	    db.WithLogger(logger),
//	    db.WithMigrations(os.DirFS("migrations")),
//	)
//	if err := database.Start(ctx); err != nil {
//	    return err
//	}
//	defer database.Stop(ctx)
//
//	applied, err := database.Migrate(ctx)
//
// # Transactions
//
//	err := database.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "INSERT INTO users (name) VALUES ($1)", "Jim")
//	    return err
//	})
//
// The context passed to fn carries the transaction. Code that receives it
// can join the transaction with [QuerierFrom] instead of using the pool.
//
// # Error Handling
//
// Errors are wrapped with [errors.Join] around the sentinel errors declared in
// this package, such as [ErrFailedToOpenDBConnection] and [ErrApplyMigrations].
package db
