package runner_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/config"
	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/docker"
	"github.com/pseudomuto/chmigrate/pkg/failure"
	"github.com/pseudomuto/chmigrate/pkg/migrator"
	"github.com/pseudomuto/chmigrate/pkg/runner"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

func startClickHouse(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	srv, err := docker.Start(ctx, docker.Options{Password: "s3cret"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	dsn, err := srv.DSN(ctx)
	require.NoError(t, err)

	return dsn
}

func TestIntegration(t *testing.T) {
	dsn := startClickHouse(t)
	ctx := context.Background()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dir := writeMigrations(t, migrations)
	cfg := config.Default()
	cfg.Dir = dir
	cfg.Host = dsn
	cfg.Database = "chmigrate_it"
	cfg.Settings = map[string]string{"mutations_sync": "0", "max_threads": "2"}

	t.Run("status before the database exists", func(t *testing.T) {
		statuses, err := runner.Status(ctx, cfg, logger)
		require.NoError(t, err)
		require.Len(t, statuses, 3)
		for _, s := range statuses {
			require.Equal(t, migrator.StatePending, s.State())
		}

		// Status must not create anything.
		require.False(t, databaseExists(t, cfg, "chmigrate_it"))
	})

	t.Run("plan", func(t *testing.T) {
		steps, err := runner.Plan(ctx, cfg, logger)
		require.NoError(t, err)
		require.Len(t, steps, 3)
		require.Equal(t, "2_add_created_at.sql", steps[1].Migration.Name)
		require.Equal(t, map[string]string{"mutations_sync": "2"}, steps[1].Script.Settings)
		require.False(t, databaseExists(t, cfg, "chmigrate_it"))
	})

	t.Run("migrate", func(t *testing.T) {
		applied, err := runner.Migrate(ctx, cfg, logger)
		require.NoError(t, err)
		require.Equal(t, []string{"1_create_events.sql", "2_add_created_at.sql", "003_seed_events.sql"}, applied)

		client := connect(t, cfg)
		rows, err := client.Query(ctx, "SELECT name FROM events ORDER BY id")
		require.NoError(t, err)
		defer func() { _ = rows.Close() }()

		var names []string
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			names = append(names, name)
		}
		require.Equal(t, []string{"first; event", "it's -- second"}, names)
		require.Contains(t, logs.String(), "version=25.7.")
	})

	t.Run("migrate again", func(t *testing.T) {
		applied, err := runner.Migrate(ctx, cfg, logger)
		require.NoError(t, err)
		require.Empty(t, applied)
		require.Contains(t, logs.String(), "no migrations to apply")
	})

	t.Run("status after migrating", func(t *testing.T) {
		statuses, err := runner.Status(ctx, cfg, logger)
		require.NoError(t, err)
		require.Len(t, statuses, 3)
		for _, s := range statuses {
			require.Equal(t, migrator.StateApplied, s.State(), s.File)
			require.NotNil(t, s.AppliedAt)
			require.True(t, *s.ChecksumMatch)
		}
	})

	t.Run("new migration", func(t *testing.T) {
		path := filepath.Join(dir, "4_add_index.sql")
		require.NoError(t, os.WriteFile(
			path,
			[]byte("ALTER TABLE events ADD INDEX idx_name name TYPE bloom_filter GRANULARITY 1;"),
			consts.ModeFile,
		))
		t.Cleanup(func() { _ = os.Remove(path) })

		applied, err := runner.Migrate(ctx, cfg, logger)
		require.NoError(t, err)
		require.Equal(t, []string{"4_add_index.sql"}, applied)
	})

	t.Run("divergent migration", func(t *testing.T) {
		path := filepath.Join(dir, "2_add_created_at.sql")
		original, err := os.ReadFile(path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = os.WriteFile(path, original, consts.ModeFile) })

		require.NoError(t, os.WriteFile(path, append(original, '\n'), consts.ModeFile))

		_, err = runner.Migrate(ctx, cfg, logger)
		require.Error(t, err)
		require.True(t, failure.Is(err, failure.DivergentMigration))

		lenient := *cfg
		lenient.AbortDivergent = false
		applied, err := runner.Migrate(ctx, &lenient, logger)
		require.NoError(t, err)
		require.Empty(t, applied)
		require.Contains(t, logs.String(), "migration changed after it was applied, skipping")

		statuses, err := runner.Status(ctx, cfg, logger)
		require.NoError(t, err)
		require.Equal(t, migrator.StateDivergent, statuses[1].State())
	})

	t.Run("missing migration file", func(t *testing.T) {
		path := filepath.Join(dir, "003_seed_events.sql")
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.Remove(path))
		t.Cleanup(func() { _ = os.WriteFile(path, content, consts.ModeFile) })

		_, err = runner.Migrate(ctx, cfg, logger)
		require.Error(t, err)
		require.True(t, failure.Is(err, failure.MissingMigrationFile))
		require.Contains(t, err.Error(), "003_seed_events.sql (version 3)")
	})

	t.Run("failing statement", func(t *testing.T) {
		path := filepath.Join(dir, "5_broken.sql")
		require.NoError(t, os.WriteFile(
			path,
			[]byte("CREATE TABLE IF NOT EXISTS audit (id UInt64) ENGINE = MergeTree ORDER BY id;\nSELECT * FROM no_such_table;"),
			consts.ModeFile,
		))
		t.Cleanup(func() { _ = os.Remove(path) })

		_, err := runner.Migrate(ctx, cfg, logger)
		require.Error(t, err)
		require.True(t, failure.Is(err, failure.MigrationExecution))
		require.Contains(t, err.Error(), "5_broken.sql")
		require.Contains(t, err.Error(), "statement 2 of 2")
		require.NotContains(t, err.Error(), "s3cret")

		statuses, err := runner.Status(ctx, cfg, logger)
		require.NoError(t, err)
		require.False(t, statuses[len(statuses)-1].Applied)
	})
}

func connect(t *testing.T, cfg *config.Config) *clickhouse.Client {
	t.Helper()

	client, err := clickhouse.NewClient(context.Background(), cfg.ClientOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func databaseExists(t *testing.T, cfg *config.Config, name string) bool {
	t.Helper()

	client, err := clickhouse.NewClient(context.Background(), cfg.ClientOptions().Admin())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	exists, err := client.DatabaseExists(context.Background(), name)
	require.NoError(t, err)

	return exists
}
