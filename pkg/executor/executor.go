package executor

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/failure"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/pseudomuto/chmigrate/pkg/utils"
)

const ledgerColumns = `(
	uid UUID DEFAULT generateUUIDv4(),
	version UInt32,
	checksum String,
	migration_name String,
	applied_at DateTime DEFAULT now()
)`

type (
	// ClickHouse defines the interface for ClickHouse database operations
	// required by the migration executor.
	ClickHouse interface {
		Query(context.Context, string, ...any) (driver.Rows, error)
		Exec(context.Context, string, ...any) error
		ExecuteMigration(ctx context.Context, stmt string, settings map[string]string) error
	}

	// Executor applies pending migrations against ClickHouse and records them
	// in the ledger.
	//
	// Migrations run one at a time in ascending version order, and the
	// statements of a migration run one at a time in file order. Nothing is
	// rolled back when a statement fails.
	//
	// Example usage:
	//
	//	exec := executor.New(executor.Config{
	//		ClickHouse:     client,
	//		Logger:         logger,
	//		AbortDivergent: true,
	//	})
	//
	//	if err := exec.Bootstrap(ctx); err != nil {
	//		return err
	//	}
	//
	//	applied, err := exec.Execute(ctx, migrationDir.Migrations)
	Executor struct {
		ch             ClickHouse
		logger         *slog.Logger
		tableEngine    string
		abortDivergent bool
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// ClickHouse client for database operations
		ClickHouse ClickHouse

		// Logger receives progress and warnings. Nil discards them.
		Logger *slog.Logger

		// TableEngine is the engine clause of the ledger table. Defaults to
		// MergeTree.
		TableEngine string

		// AbortDivergent stops the run when an applied migration's file has
		// changed. When false the change is logged and the migration skipped.
		AbortDivergent bool
	}
)

// New creates a new migration executor with the provided configuration.
func New(config Config) *Executor {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := config.TableEngine
	if engine == "" {
		engine = consts.DefaultTableEngine
	}

	return &Executor{
		ch:             config.ClickHouse,
		logger:         logger,
		tableEngine:    engine,
		abortDivergent: config.AbortDivergent,
	}
}

// Bootstrap creates the ledger table when it does not exist yet.
func (e *Executor) Bootstrap(ctx context.Context) error {
	if err := e.ch.Exec(ctx, e.LedgerDDL()); err != nil {
		return failure.Wrap(err, failure.Connection, "failed to create the %s table", consts.LedgerTable)
	}

	return nil
}

// LedgerDDL returns the statement that creates the ledger table.
func (e *Executor) LedgerDDL() string {
	return utils.NewSQLBuilder().
		Create("TABLE").
		IfNotExists().
		Name(consts.LedgerTable).
		Raw(ledgerColumns).
		Engine(e.tableEngine).
		Raw("ORDER BY tuple(applied_at)").
		String()
}

// Execute applies every migration that has no ledger row and returns the file
// names of the migrations it applied, in order.
//
// Before anything runs the ledger is read in full. A ledger row without a
// matching migration fails with failure.MissingMigrationFile. Applied
// migrations are verified by checksum; a mismatch fails with
// failure.DivergentMigration when AbortDivergent is set and is only logged
// otherwise.
//
// When a run fails part way, the migrations applied so far are logged and
// returned together with the error.
//
// Example usage:
//
//	applied, err := exec.Execute(ctx, migrationDir.Migrations)
//	for _, name := range applied {
//		fmt.Println("applied", name)
//	}
//	if err != nil {
//		return err
//	}
func (e *Executor) Execute(ctx context.Context, migrations []*migrator.Migration) ([]string, error) {
	ledger, err := migrator.LoadLedger(ctx, e.ch)
	if err != nil {
		return nil, failure.Wrap(err, failure.Connection, "failed to read the %s table", consts.LedgerTable)
	}

	migrations = sorted(migrations)
	if err := checkLedger(migrations, ledger); err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(migrations))
	for _, m := range migrations {
		if row, ok := ledger.Get(m.Version); ok {
			if err := e.verify(m, row); err != nil {
				return e.abort(applied, err)
			}
			continue
		}

		if err := e.apply(ctx, m); err != nil {
			return e.abort(applied, err)
		}
		applied = append(applied, m.Name)
	}

	if len(applied) == 0 {
		e.logger.Info("no migrations to apply")
		return applied, nil
	}

	e.logger.Info("migrations applied", "count", len(applied), "migrations", applied)
	return applied, nil
}

func (e *Executor) apply(ctx context.Context, m *migrator.Migration) error {
	start := time.Now()
	logger := e.logger.With("migration", m.Name, "version", m.Version)

	script, err := m.Script()
	if err != nil {
		return failure.Wrap(err, failure.KindOf(err), "failed to parse migration %s", m.Name)
	}

	logger.Info("applying migration", "statements", len(script.Statements), "settings", len(script.Settings))

	for i, stmt := range script.Statements {
		if err := e.ch.ExecuteMigration(ctx, stmt, script.Settings); err != nil {
			return failure.Wrap(
				err,
				failure.MigrationExecution,
				"migration %s failed at statement %d of %d; statements already executed from this "+
					"file are not rolled back and will not be re-run automatically, so make the "+
					"migration idempotent before retrying",
				m.Name,
				i+1,
				len(script.Statements),
			)
		}

		logger.Debug("executed statement", "index", i+1)
	}

	if err := e.record(ctx, m); err != nil {
		return failure.Wrap(err, failure.MigrationExecution, "migration %s ran but could not be recorded", m.Name)
	}

	logger.Info("applied migration", "duration", time.Since(start))
	return nil
}

func (e *Executor) verify(m *migrator.Migration, row *migrator.LedgerRow) error {
	checksum := m.Checksum()
	if checksum == row.Checksum {
		e.logger.Debug("migration already applied", "migration", m.Name, "version", m.Version)
		return nil
	}

	if e.abortDivergent {
		return failure.New(
			failure.DivergentMigration,
			"migration %s changed after it was applied (recorded checksum %s, current checksum %s)",
			m.Name,
			row.Checksum,
			checksum,
		)
	}

	e.logger.Warn(
		"migration changed after it was applied, skipping",
		"migration", m.Name,
		"version", m.Version,
		"recorded_checksum", row.Checksum,
		"checksum", checksum,
	)

	return nil
}

// record saves a ledger row for a migration whose statements all succeeded.
func (e *Executor) record(ctx context.Context, m *migrator.Migration) error {
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (version, checksum, migration_name) VALUES (?, ?, ?)",
		consts.LedgerTable,
	)

	return errors.Wrap(e.ch.Exec(ctx, insertSQL, m.Version, m.Checksum(), m.Name), "failed to insert ledger row")
}

func (e *Executor) abort(applied []string, err error) ([]string, error) {
	if len(applied) > 0 {
		e.logger.Info("migrations applied before the failure", "count", len(applied), "migrations", applied)
	}

	return applied, err
}

// checkLedger fails when the ledger references migrations that no longer have
// a file, or when there is nothing at all to work with.
func checkLedger(migrations []*migrator.Migration, ledger *migrator.Ledger) error {
	orphans := ledger.Orphans(&migrator.MigrationDir{Migrations: migrations})
	if len(orphans) > 0 {
		names := make([]string, len(orphans))
		for i, row := range orphans {
			names[i] = fmt.Sprintf("%s (version %d)", row.MigrationName, row.Version)
		}

		return failure.New(
			failure.MissingMigrationFile,
			"applied migrations are missing from the migrations directory: %s",
			strings.Join(names, ", "),
		)
	}

	if len(migrations) == 0 && ledger.Count() == 0 {
		return failure.New(failure.NoMigrationsFound, "no migrations found and none have been applied")
	}

	return nil
}

func sorted(migrations []*migrator.Migration) []*migrator.Migration {
	out := slices.Clone(migrations)
	slices.SortFunc(out, func(a, b *migrator.Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})

	return out
}
