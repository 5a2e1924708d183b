// Package sqlite provides SQLite-based storage implementations for prgi services.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/fwojciec/prgi"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
// Open is safe to call against an existing database. Returns EUNAVAILABLE
// if the database cannot be opened or written.
func (db *DB) Open() error {
	if db.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
			return prgi.Errorf(prgi.EUNAVAILABLE, "failed to create database directory: %v", err)
		}
	}

	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return prgi.Errorf(prgi.EUNAVAILABLE, "failed to open database: %v", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	// This also keeps ":memory:" databases on a single shared connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return prgi.Errorf(prgi.EUNAVAILABLE, "failed to connect to database: %v", err)
	}

	// Wait up to 5 seconds on lock contention from a concurrent reader process.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return prgi.Errorf(prgi.EUNAVAILABLE, "failed to set busy timeout: %v", err)
	}

	// WAL lets query processes read while an import is writing.
	// WAL mode is not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return prgi.Errorf(prgi.EUNAVAILABLE, "failed to enable WAL mode: %v", err)
		}
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		db.db = nil
		return prgi.Errorf(prgi.EUNAVAILABLE, "failed to create schema: %v", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, opts)
}

// createSchema creates the registrations table and its indexes if they don't exist.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS registrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			serial_number TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			registration_number TEXT NOT NULL DEFAULT '',
			owner_name TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			district TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			class_name TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT ''
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_registrations_unique
			ON registrations(registration_number, title, owner_name);

		-- Exact-match filters compare with NOCASE; the indexes must share it.
		CREATE INDEX IF NOT EXISTS idx_registrations_state ON registrations(state COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_registrations_district ON registrations(district COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_registrations_language ON registrations(language COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_registrations_class_name ON registrations(class_name COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_registrations_owner_name ON registrations(owner_name);
	`

	_, err := db.db.Exec(schema)
	return err
}
