// Package ledger provides the SQLite-backed read side over collected
// archives: per-key aggregation and record search. The ledger is derived
// state, rebuilt from archive files by Sync; archives stay authoritative.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	key        TEXT NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	path    TEXT NOT NULL,
	key     TEXT NOT NULL,
	date    TEXT NOT NULL,
	raw     TEXT NOT NULL,
	minutes INTEGER NOT NULL DEFAULT 0,
	amount  REAL NOT NULL DEFAULT 0,
	symbol  TEXT NOT NULL DEFAULT '',
	km      REAL NOT NULL DEFAULT 0,
	steps   INTEGER NOT NULL DEFAULT 0,
	mention INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_records_key_date ON records(key, date);
CREATE INDEX IF NOT EXISTS idx_records_path ON records(path);
`

// DB wraps a sql.DB with ledger-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
