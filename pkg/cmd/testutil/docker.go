package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pseudomuto/chmigrate/pkg/consts"
	"github.com/pseudomuto/chmigrate/pkg/docker"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// StartClickHouseContainer starts a ClickHouse container and returns its HTTP
// DSN. The test is skipped in short mode or when Docker is unavailable.
func StartClickHouseContainer(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	srv, err := docker.Start(ctx, docker.Options{})
	require.NoError(t, err, "Failed to start ClickHouse container")
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	dsn, err := srv.DSN(ctx)
	require.NoError(t, err, "Failed to get container DSN")

	return dsn
}

// WriteMigrations creates a temporary migrations directory holding files.
func WriteMigrations(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), consts.DefaultMigrationsDir)
	require.NoError(t, os.MkdirAll(dir, consts.ModeDir))

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), consts.ModeFile))
	}

	return dir
}
