//go:build sqlite_fts5

package ledger

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			key,
			date UNINDEXED,
			raw,
			path UNINDEXED,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, key, date, raw, path string) error {
	_, err := tx.Exec(`INSERT INTO records_fts (key, date, raw, path) VALUES (?, ?, ?, ?)`,
		key, date, raw, path)
	if err != nil {
		return fmt.Errorf("ledger: insert fts: %w", err)
	}
	return nil
}

func ftsDeleteByPath(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM records_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over collected records.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT key, date, raw
		FROM records_fts
		WHERE records_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Key, &r.Date, &r.Raw); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
