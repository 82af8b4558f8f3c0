package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/executor"
	"github.com/pseudomuto/chmigrate/pkg/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type migrateParams struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// migrate creates the migrate command for applying pending migrations.
//
// Command flags (in addition to the connection flags):
//   - --dry-run: Show what would be executed without applying changes
//   - --abort-divergent: Fail when an applied migration was edited (default true)
//   - --create-database: Create the target database when missing (default true)
//
// Example usage:
//
//	# Apply all pending migrations
//	chmigrate migrate --host localhost:8123 --db analytics
//
//	# Show what would be executed without applying
//	chmigrate migrate --host localhost:8123 --db analytics --dry-run
//
//	# Apply migrations by connecting via mTLS
//	chmigrate migrate --host https://ch.internal:8443 --ca-cert ca.pem --cert tls.crt --key tls.key
func migrate(p migrateParams) *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"apply"},
		Usage:   "Apply pending migrations to ClickHouse",
		Description: `Apply every migration file that has not been recorded in the _migrations table.

Migration files are named <version>_<description>.sql and run in ascending
version order, one statement at a time. SET <name> = <value> directives in a
file are sent as settings with every statement of that file.

ClickHouse cannot roll back DDL. When a statement fails, the statements of that
file that already ran stay applied and the file is not recorded, so the next
run starts it from the beginning. Write migrations that can safely run again.`,
		Flags: append(
			connectionFlags(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would be executed without applying changes",
			},
			&cli.BoolFlag{
				Name:    "abort-divergent",
				Usage:   "fail when an applied migration was edited (use --abort-divergent=false to only warn)",
				Value:   true,
				Sources: cli.EnvVars(consts.EnvAbortDivergent),
			},
			&cli.BoolFlag{
				Name:    "create-database",
				Usage:   "create the target database when it does not exist",
				Value:   true,
				Sources: cli.EnvVars(consts.EnvCreateDatabase),
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMigrate(ctx, cmd, p)
		},
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command, p migrateParams) error {
	cfg, err := buildConfig(cmd, p.Config)
	if err != nil {
		return err
	}
	rememberSecrets(ctx, cfg)

	logger := loggerFrom(ctx).With("dir", cfg.Dir, "host", cfg.Host)
	w := writer(cmd)

	if cmd.Bool("dry-run") {
		logger.Info("planning migrations")

		steps, err := runner.Plan(ctx, cfg, logger)
		if err != nil {
			return err
		}

		return writePlan(w, steps)
	}

	logger.Info("applying migrations")

	applied, err := runner.Migrate(ctx, cfg, logger)
	for _, name := range applied {
		fmt.Fprintf(w, "Applied %s\n", name)
	}

	if err != nil {
		return err
	}

	if len(applied) == 0 {
		fmt.Fprintln(w, "No migrations to apply.")
	}

	return nil
}

func writePlan(w io.Writer, steps []*executor.Step) error {
	if len(steps) == 0 {
		_, err := fmt.Fprintln(w, "Dry run: no migrations to apply.")
		return err
	}

	fmt.Fprintf(w, "Dry run: %d migration(s) would be applied\n", len(steps))
	for _, step := range steps {
		fmt.Fprintf(w, "\n%s (%d statements)\n", step.Migration.Name, len(step.Script.Statements))

		for _, name := range slices.Sorted(maps.Keys(step.Script.Settings)) {
			fmt.Fprintf(w, "  SET %s = %s\n", name, step.Script.Settings[name])
		}

		for _, stmt := range step.Script.Statements {
			fmt.Fprintf(w, "  %s\n", stmt)
		}
	}

	return nil
}
