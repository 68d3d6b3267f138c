package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend behind a DB
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const memoryLocation = ":memory:"

// Config holds the storage location of the ledger. URL is either a
// postgres:// connection string, a SQLite file path, or ":memory:".
type Config struct {
	URL string
}

// DB wraps the ledger database connection
type DB struct {
	queries
	conn     *sql.DB
	location string
}

// New opens the store described by cfg.URL and verifies the connection
func New(cfg Config) (*DB, error) {
	location := strings.TrimSpace(cfg.URL)
	if location == "" {
		return nil, fmt.Errorf("storage location is required")
	}

	dialect := DialectForURL(location)

	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case DialectPostgres:
		conn, err = sql.Open("postgres", location)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(1 * time.Hour)
		conn.SetConnMaxIdleTime(10 * time.Minute)
	default:
		location, err = sqlitePath(location)
		if err != nil {
			return nil, err
		}
		conn, err = sql.Open("sqlite", sqliteConnectionString(location))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// A single connection keeps ":memory:" alive and serializes writers.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newDB(conn, dialect, location), nil
}

func newDB(conn *sql.DB, dialect Dialect, location string) *DB {
	return &DB{
		queries:  queries{ex: conn, dialect: dialect},
		conn:     conn,
		location: location,
	}
}

// DialectForURL reports which backend a storage location refers to
func DialectForURL(url string) Dialect {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

func sqlitePath(location string) (string, error) {
	location = strings.TrimPrefix(location, "sqlite://")
	if location == memoryLocation {
		return location, nil
	}

	absPath, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return absPath, nil
}

// sqliteConnectionString applies the durability PRAGMAs the ledger relies on:
// every committed sale is fsynced before the commit returns.
func sqliteConnectionString(path string) string {
	connStr := path + "?_pragma=foreign_keys(1)"
	connStr += "&_pragma=busy_timeout(5000)"
	connStr += "&_pragma=synchronous(FULL)"
	if path != memoryLocation {
		connStr += "&_pragma=journal_mode(WAL)"
	}
	return connStr
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Dialect returns the SQL backend in use
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Location returns the storage location the DB was opened with
func (db *DB) Location() string {
	return db.location
}

// WithTransaction runs fn inside a transaction. The transaction commits when
// fn returns nil and rolls back when fn returns an error or panics.
func (db *DB) WithTransaction(ctx context.Context, fn func(Repository) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rollbackErr)
			} else {
				err = fmt.Errorf("transaction failed: %w", err)
			}
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(&Tx{
		queries: queries{ex: tx, dialect: db.dialect, lockRows: db.dialect == DialectPostgres},
		tx:      tx,
	})
	return err
}

// Tx exposes the ledger table operations inside an open transaction
type Tx struct {
	queries
	tx *sql.Tx
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries carries the table operations shared by DB and Tx. Statements are
// written with ? placeholders and rebound for the active dialect.
type queries struct {
	ex       execer
	dialect  Dialect
	lockRows bool
}

func (q queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.ex.ExecContext(ctx, q.dialect.rebind(query), args...)
}

func (q queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.ex.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.ex.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

func (d Dialect) rebind(query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
