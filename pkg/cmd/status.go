package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/failure"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/pseudomuto/chmigrate/pkg/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type (
	statusParams struct {
		fx.In

		Config *config.Config `optional:"true"`
	}

	jsonStatus struct {
		*migrator.MigrationStatus
		State migrator.State `json:"state"`
	}
)

// status creates the status command for showing migration status.
//
// The command only reads from ClickHouse. When the database or the
// _migrations table does not exist yet, every migration is reported pending.
//
// Example usage:
//
//	# Show a table of migrations
//	chmigrate status --host localhost:8123 --db analytics
//
//	# Machine readable output
//	chmigrate status --host localhost:8123 --db analytics --output json
func status(p statusParams) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show migration status",
		Description: `Display every migration file with its applied state.

Applied migrations whose file changed since they ran are reported as divergent.
Rows in the _migrations table without a matching file are not listed; migrate
reports them as errors.`,
		Flags: append(
			connectionFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output format (text or json)",
				Value:   outputText,
				Validator: func(s string) error {
					if s != outputText && s != outputJSON {
						return failure.New(failure.Config, "unsupported output %q (expected text or json)", s)
					}
					return nil
				},
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStatus(ctx, cmd, p)
		},
	}
}

func runStatus(ctx context.Context, cmd *cli.Command, p statusParams) error {
	cfg, err := buildConfig(cmd, p.Config)
	if err != nil {
		return err
	}
	rememberSecrets(ctx, cfg)

	logger := loggerFrom(ctx).With("dir", cfg.Dir, "host", cfg.Host)
	logger.Debug("checking migration status")

	statuses, err := runner.Status(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cmd.String("output") == outputJSON {
		return writeStatusJSON(writer(cmd), statuses)
	}

	return writeStatusText(writer(cmd), statuses)
}

func writeStatusJSON(w io.Writer, statuses []*migrator.MigrationStatus) error {
	out := make([]jsonStatus, len(statuses))
	for i, s := range statuses {
		out[i] = jsonStatus{MigrationStatus: s, State: s.State()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(out), "failed to encode status")
}

func writeStatusText(w io.Writer, statuses []*migrator.MigrationStatus) error {
	if len(statuses) == 0 {
		_, err := fmt.Fprintln(w, "No migration files found.")
		return err
	}

	var applied, pending, divergent int

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tFILE\tSTATE\tAPPLIED AT")

	for _, s := range statuses {
		appliedAt := "-"
		if s.AppliedAt != nil {
			appliedAt = s.AppliedAt.UTC().Format(time.DateTime)
		}

		switch s.State() {
		case migrator.StateApplied:
			applied++
		case migrator.StateDivergent:
			divergent++
		default:
			pending++
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, s.File, s.State(), appliedAt)
	}

	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write status")
	}

	_, err := fmt.Fprintf(
		w,
		"\n%d migration(s): %d applied, %d pending, %d divergent\n",
		len(statuses),
		applied,
		pending,
		divergent,
	)

	return err
}
