package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestNewApp(t *testing.T) {
	run := func(t *testing.T, args ...string) (*bytes.Buffer, error) {
		t.Helper()

		var stderr bytes.Buffer
		probe := &cli.Command{
			Name: "probe",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				loggerFrom(ctx).Info("probing", "password", "s3cret")
				return nil
			},
		}

		app := NewApp(&Version{Version: "v1.2.3"}, []*cli.Command{probe})
		app.Writer = &bytes.Buffer{}
		app.ErrWriter = &stderr

		return &stderr, app.Run(context.Background(), append([]string{"chmigrate"}, args...))
	}

	t.Run("text logs", func(t *testing.T) {
		stderr, err := run(t, "probe")
		require.NoError(t, err)
		require.Contains(t, stderr.String(), `msg=probing`)
		require.Contains(t, stderr.String(), "password=***")
		require.Contains(t, stderr.String(), "run_id=")
	})

	t.Run("json logs", func(t *testing.T) {
		stderr, err := run(t, "--log-format", "json", "probe")
		require.NoError(t, err)
		require.Contains(t, stderr.String(), `"msg":"probing"`)
	})

	t.Run("level", func(t *testing.T) {
		stderr, err := run(t, "--log-level", "warn", "probe")
		require.NoError(t, err)
		require.Empty(t, stderr.String())
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := run(t, "--log-format", "xml", "probe")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported log format")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := run(t, "--log-level", "loud", "probe")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid log level")
	})
}

func TestLoggerFrom(t *testing.T) {
	require.NotNil(t, loggerFrom(context.Background()))
}

func TestReportError(t *testing.T) {
	t.Run("scrubs remembered passwords", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), secretsKey{}, &secrets{})

		cfg := config.Default()
		cfg.Host = "migrator:from-dsn@ch.internal:8123"
		cfg.Password = "explicit"
		rememberSecrets(ctx, cfg)

		var buf bytes.Buffer
		reportError(ctx, &buf, errors.New("failed at migrator:from-dsn@ch.internal:8123 with explicit"))
		require.Equal(t, "Error: failed at migrator:***@ch.internal:8123 with ***\n", buf.String())
	})

	t.Run("without remembered passwords", func(t *testing.T) {
		var buf bytes.Buffer
		rememberSecrets(context.Background(), config.Default())
		reportError(context.Background(), &buf, errors.New("boom"))
		require.Equal(t, "Error: boom\n", buf.String())
	})
}
