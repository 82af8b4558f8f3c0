package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

// RunCommand executes a command below a bare root command and returns what it
// wrote to stdout.
func RunCommand(t *testing.T, command *cli.Command, args []string) (string, error) {
	t.Helper()
	return RunCommandWithContext(context.Background(), t, command, args)
}

// RunCommandWithContext executes a command with a custom context
func RunCommandWithContext(ctx context.Context, t *testing.T, command *cli.Command, args []string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	// Create a test CLI app
	app := &cli.Command{
		Name:      "test",
		Writer:    &stdout,
		ErrWriter: &stderr,
		Commands:  []*cli.Command{command},
	}

	// Prepend command name to args
	fullArgs := append([]string{"test", command.Name}, args...)

	err := app.Run(ctx, fullArgs)
	return stdout.String(), err
}

// ParseCommandFlags parses command line flags for a command without running
// its action and returns the parsed command.
func ParseCommandFlags(t *testing.T, command *cli.Command, args []string) (*cli.Command, error) {
	t.Helper()

	var parsed *cli.Command

	// Create a copy of the command with a no-op action
	cmdCopy := &cli.Command{
		Name:  command.Name,
		Flags: command.Flags,
		Action: func(_ context.Context, cmd *cli.Command) error {
			parsed = cmd
			return nil
		},
	}

	app := &cli.Command{
		Name:     "test",
		Commands: []*cli.Command{cmdCopy},
	}

	if err := app.Run(context.Background(), append([]string{"test", command.Name}, args...)); err != nil {
		return nil, err
	}

	return parsed, nil
}
