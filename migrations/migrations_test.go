package migrations

import (
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

func TestNamesAreOrdered(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	require.Equal(t, "0001_init.up.sql", names[0])
}

func TestEmbeddedFilesFormAMigrateSource(t *testing.T) {
	src, err := iofs.New(files, ".")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	first, err := src.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)

	up, ident, err := src.ReadUp(first)
	require.NoError(t, err)
	require.NoError(t, up.Close())
	require.Equal(t, "init", ident)

	down, _, err := src.ReadDown(first)
	require.NoError(t, err, "every up migration needs a down file")
	require.NoError(t, down.Close())
}

func TestInitCreatesStoredTables(t *testing.T) {
	body, err := files.ReadFile("0001_init.up.sql")
	require.NoError(t, err)
	schema := string(body)
	tables := []string{
		"staff", "staff_sessions", "customers", "counters", "jobs", "job_lines",
		"job_accessories", "job_images", "payments", "notification_logs", "settings", "audit_logs",
	}
	for _, table := range tables {
		require.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	require.True(t, strings.Contains(schema, "order_number         TEXT NOT NULL UNIQUE"))

	down, err := files.ReadFile("0001_init.down.sql")
	require.NoError(t, err)
	for _, table := range tables {
		require.Contains(t, string(down), "DROP TABLE IF EXISTS "+table+";", table)
	}
}
