// Package sqlite implements the repository interfaces on SQLite.
//
// WHY SQLITE?
// SQLite is embedded: the whole database is one file next to the binary, and
// ":memory:" gives every test its own throwaway database. modernc.org/sqlite
// is a pure Go translation of SQLite, so no C compiler is needed.
//
// LAYOUT:
// An account's cars live in their own table with a foreign key back to the
// account (ON DELETE CASCADE), which gives the same "cars live and die with
// their owner" shape as an embedded array in a document store.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/car-listings/internal/repository"
)

var _ repository.Store = (*DB)(nil)

const memoryPath = ":memory:"

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/cars.db"  → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database,
	// so the pool is pinned to one connection.
	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if dbPath == memoryPath {
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn applies the per-connection pragmas through the driver's _pragma
// parameter, so every connection in the pool gets them, not just the first.
func dsn(dbPath string) string {
	if dbPath == memoryPath {
		return memoryPath
	}
	return "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			phone         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	// seq keeps insertion order stable even when two cars share a created_at.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cars (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			account_id  TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			tags        TEXT NOT NULL,
			images      TEXT NOT NULL DEFAULT '[]',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_cars_account_id ON cars(account_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("creating cars table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
