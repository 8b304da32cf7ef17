// Package testutil starts throwaway Postgres containers for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pwannenmacher/campus-fest/internal/database"
	"github.com/pwannenmacher/campus-fest/migrations"
)

// TestContainers holds references to test containers
type TestContainers struct {
	PostgresContainer *postgres.PostgresContainer
	DB                *sql.DB
	DBConnString      string
}

// SetupPostgres starts a PostgreSQL container and applies the embedded
// migrations. Integration tests are skipped with -short.
func SetupPostgres(t *testing.T) *TestContainers {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase("campusfest_test"),
		postgres.WithUsername("campusfest_test"),
		postgres.WithPassword("campusfest_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	tc := &TestContainers{PostgresContainer: postgresContainer}
	t.Cleanup(func() { tc.Cleanup(t) })

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	tc.DBConnString = connStr

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	tc.DB = db

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if _, err := database.NewMigrationExecutor(db).Run(ctx, migrations.FS); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return tc
}

// Cleanup closes the pool and terminates the container
func (tc *TestContainers) Cleanup(t *testing.T) {
	t.Helper()

	if tc.DB != nil {
		_ = tc.DB.Close()
		tc.DB = nil
	}

	if tc.PostgresContainer != nil {
		if err := tc.PostgresContainer.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
		tc.PostgresContainer = nil
	}
}
