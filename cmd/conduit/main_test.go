package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"conduit/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "conduit.db"))
	t.Setenv("DB_SCHEMA_MODE", "auto")
	t.Setenv("REDIS_URL", mr.Addr())
	t.Cleanup(func() { cache.SetClient(nil) })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedAndMigrateCommands(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "seed", "--demo")
	require.NoError(t, err)
	assert.Contains(t, out, "users=3 follows=3 articles=3")

	out, err = execute(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "mode=auto")
	assert.Contains(t, out, "run_auto=true")
}

func TestMigrateDownRequiresVersion(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "migrate", "down")
	assert.Error(t, err)

	_, err = execute(t, "migrate", "down", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version")
}
