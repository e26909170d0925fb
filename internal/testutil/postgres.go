// Package testutil provides shared test utilities
package testutil

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var suppressedLogger = log.New(io.Discard, "", 0)

// postgresVersion reads SQLCHECK_POSTGRES_VERSION, defaulting to 17
func postgresVersion() string {
	if v := os.Getenv("SQLCHECK_POSTGRES_VERSION"); v != "" {
		return v
	}
	return "17"
}

// PostgresDSN returns a DSN for a Postgres server. SQLCHECK_TEST_PG_DSN
// wins when set; otherwise a container is started and terminated when the
// test ends. The test is skipped in -short mode or when no container
// runtime is reachable.
func PostgresDSN(ctx context.Context, t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("SQLCHECK_TEST_PG_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}

	container, err := postgres.Run(ctx,
		"postgres:"+postgresVersion()+"-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(suppressedLogger),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	return dsn
}
