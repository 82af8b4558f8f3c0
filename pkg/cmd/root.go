package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/logging"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}

	loggerKey  struct{}
	secretsKey struct{}

	// secrets collects the passwords of every configuration a command
	// resolved so the final error message can be scrubbed.
	secrets struct {
		values []string
	}
)

// Run registers the chmigrate CLI application with the fx lifecycle. The
// application runs when fx starts and the process exits with code 1 when the
// command fails.
//
// Global Flags:
//   - --log-format: text (default) or json, also read from CH_MIGRATIONS_LOG_FORMAT
//   - --log-level: debug, info (default), warn or error
//
// Example usage:
//
//	fx.New(
//		fx.Supply(os.Args, ctx, &cmd.Version{Version: "v1.0.0"}),
//		config.Module,
//		cmd.Module,
//	).Run()
func Run(p Params) {
	app := NewApp(p.Version, p.Commands)

	p.Lifecycle.Append(fx.StartHook(func() {
		ctx := context.WithValue(p.Ctx, secretsKey{}, &secrets{})
		if err := app.Run(ctx, p.Args); err != nil {
			reportError(ctx, app.ErrWriter, err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
			return
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

// NewApp builds the root command.
func NewApp(version *Version, commands []*cli.Command) *cli.Command {
	if version == nil {
		version = &Version{Version: "dev"}
	}

	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Root().Writer, "Version:", version.Version)
		fmt.Fprintln(cmd.Root().Writer, "Commit:", version.Commit)
		fmt.Fprintln(cmd.Root().Writer, "Date:", version.Timestamp)
	}

	return &cli.Command{
		Name:  "chmigrate",
		Usage: "Apply versioned SQL migrations to ClickHouse",
		Description: `chmigrate applies numbered SQL migration files to a ClickHouse database over
the HTTP interface, records each applied file in the _migrations table and
detects files that changed after they were applied.`,
		Version:   version.Version,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log output format (text or json)",
				Value:   logging.FormatText,
				Sources: cli.EnvVars(consts.EnvLogFormat),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "minimum log level (debug, info, warn or error)",
				Value: "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := logging.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, err
			}

			logger, err := logging.New(errWriter(cmd), logging.Options{
				Format: cmd.String("log-format"),
				Level:  level,
			})
			if err != nil {
				return ctx, err
			}

			return context.WithValue(ctx, loggerKey{}, logging.WithRunID(logger)), nil
		},
		Commands: commands,
	}
}

// reportError prints err with every password remembered in ctx removed.
func reportError(ctx context.Context, w io.Writer, err error) {
	msg := err.Error()
	if s, ok := ctx.Value(secretsKey{}).(*secrets); ok {
		msg = clickhouse.RedactSecrets(msg, s.values...)
	}

	_, _ = fmt.Fprintln(w, "Error:", msg)
}

// rememberSecrets records the passwords of cfg for reportError.
func rememberSecrets(ctx context.Context, cfg *config.Config) {
	if s, ok := ctx.Value(secretsKey{}).(*secrets); ok {
		s.values = append(s.values, cfg.ClientOptions().Secrets()...)
	}
}

// loggerFrom returns the logger configured by the root command.
func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}

	return logging.Discard()
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}

	return os.Stderr
}
