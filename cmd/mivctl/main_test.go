package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mivctl.db")
	t.Setenv("MIV_DATABASE_DRIVER", "sqlite")
	t.Setenv("MIV_DATABASE_SQLITE_PATH", path)
	t.Setenv("MIV_LOG_LEVEL", "error")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIRISImport(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "iris", "import")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "imported "), out)

	// upsert by code keeps the import idempotent
	again, err := execute(t, "iris", "import")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestSeed(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "seed", "--ventures", "3", "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "ventures=3")
	assert.Contains(t, out, "workflows=1")
}

func TestMigrate_RejectsSQLite(t *testing.T) {
	useSQLite(t)

	_, err := execute(t, "migrate", "version")
	assert.ErrorIs(t, err, errSQLiteMigrations)
}

func TestMigrateCreate(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "migrate", "create", "add venture tags", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "000001_add_venture_tags.up.sql"))
	assert.Contains(t, out, filepath.Join(dir, "000001_add_venture_tags.down.sql"))
}

func TestMigrate_StepsValidatesArgs(t *testing.T) {
	_, err := execute(t, "migrate", "steps")
	assert.Error(t, err)
}
