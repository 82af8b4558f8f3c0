package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pseudomuto/chmigrate/pkg/cmd"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"go.uber.org/fx"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(
			os.Args,
			fx.Annotate(context.Background(), fx.As(new(context.Context))),
			&cmd.Version{
				Version:   version,
				Commit:    commit,
				Timestamp: date,
			},
		),
		config.Module,
		cmd.Module,
	)

	// Invalid config files fail while the graph is built, before Run.
	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	app.Run()
}
