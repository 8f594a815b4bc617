//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStoreWithMySQL runs acquisition and finesse against a MySQL store.
func TestStoreWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "techconnect",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/techconnect?parseTime=true", host, port.Port())
	exerciseStore(t, []string{
		"TECHCONNECT_STORE_BACKEND=mysql",
		"TECHCONNECT_STORE_DB_CONNECT=" + connStr,
	})
}

// TestStoreWithPostgres runs acquisition and finesse against a PostgreSQL store.
func TestStoreWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseStore(t, []string{
		"TECHCONNECT_STORE_BACKEND=postgresql",
		"TECHCONNECT_STORE_DB_CONNECT=" + connStr,
	})
}

// exerciseStore clears the store, records one simulated run and measures it again by ID.
func exerciseStore(t *testing.T, env []string) {
	t.Helper()

	_, err := runCommand(t, env, "runs", "clear")
	require.NoError(t, err)

	_, err = runCommand(t, env, "runs", "migrate")
	require.NoError(t, err)

	_, err = runCommand(t, env, append([]string{"acquire"}, simArgs...)...)
	require.NoError(t, err)

	out, err := runCommand(t, env, "finesse", "--run-id", "1", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"run_id": 1`)

	out, err = runCommand(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")
	assert.Contains(t, out, "finesse_results: 3 rows")

	out, err = runCommand(t, env, "runs", "list", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "run_id,collected_at")
}
