// Package executor applies migrations to a ClickHouse database and records
// them in the _migrations ledger.
//
// # Core Components
//
//   - Executor: applies pending migrations and verifies applied ones
//   - Config: configuration options for executor creation
//   - Step: a pending migration and the script that applying it would run
//
// # Usage Example
//
//	exec := executor.New(executor.Config{
//		ClickHouse:     client,
//		Logger:         logger,
//		AbortDivergent: true,
//	})
//
//	if err := exec.Bootstrap(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	migrationDir, err := migrator.Discover("./migrations")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	applied, err := exec.Execute(ctx, migrationDir.Migrations)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Execution Model
//
// The ledger is read once before the first migration runs. Migrations run in
// ascending version order and their statements in file order, each statement
// as its own request carrying the session settings declared by the file's
// SET directives. A migration is recorded only after all of its statements
// succeed.
//
// ClickHouse has no transactional DDL, so a statement that fails part way
// through a file leaves the earlier statements in place. The migration is not
// recorded and will run again from the first statement on the next attempt.
//
// # Integrity Verification
//
// Applied migrations are compared with their ledger row by MD5 checksum of the
// raw file bytes. Ledger rows without a matching file always fail the run,
// while edited files either fail it or are skipped with a warning depending on
// Config.AbortDivergent.
package executor
