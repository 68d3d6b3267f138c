package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// postgresDB is a migrated DB backed by a throwaway PostgreSQL container
type postgresDB struct {
	*DB
	container testcontainers.Container
}

// startPostgres runs a PostgreSQL container for the test and migrates it. The
// container and connection are released when the test ends.
func startPostgres(t *testing.T) *postgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("terminate postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := New(Config{URL: url})
	require.NoError(t, err, "connect to postgres")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(), "migrate postgres")
	return &postgresDB{DB: db, container: container}
}

// reset empties both ledger tables and restarts their id sequences. The
// history triggers only guard row-level UPDATE and DELETE, so TRUNCATE passes.
func (p *postgresDB) reset(t *testing.T) {
	t.Helper()
	_, err := p.conn.Exec(`TRUNCATE TABLE history, open_positions RESTART IDENTITY`)
	require.NoError(t, err, "truncate ledger tables")
}

// setupSQLiteDB returns a migrated in-memory SQLite DB closed at test end
func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}
