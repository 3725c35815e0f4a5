package ledger

import (
	"fmt"
)

// Row is one collected line as stored in the ledger, with its numeric
// attributes broken out for aggregation.
type Row struct {
	Path    string `json:"path"`
	Key     string `json:"key"`
	Date    string `json:"date"`
	Raw     string `json:"raw"`
	Minutes int     `json:"minutes"`
	Amount  float64 `json:"amount"`
	Symbol  string  `json:"symbol,omitempty"`
	Km      float64 `json:"km"`
	Steps   int     `json:"steps"`
	Mention bool    `json:"mention"`
}

// KeyStats aggregates every non-mention record of one key.
type KeyStats struct {
	Key      string             `json:"key"`
	Records  int                `json:"records"`
	Minutes  int                `json:"minutes"`
	Km       float64            `json:"km"`
	Steps    int                `json:"steps"`
	Currency map[string]float64 `json:"currency,omitempty"`
}

// SearchResult is one search hit.
type SearchResult struct {
	Key  string `json:"key"`
	Date string `json:"date"`
	Raw  string `json:"raw"`
}

// ReplaceFile swaps all records of one archive file inside a transaction.
// Archive files are append-mostly but the linker and manual edits rewrite
// them wholesale, so replace-per-file is the unit of consistency.
func (db *DB) ReplaceFile(path, key, checksum string, rows []Row) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, key, checksum, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			key        = excluded.key,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, path, key, checksum)
	if err != nil {
		return fmt.Errorf("ledger: upsert file: %w", err)
	}

	ftsDeleteByPath(tx, path)
	if _, err := tx.Exec(`DELETE FROM records WHERE path = ?`, path); err != nil {
		return fmt.Errorf("ledger: clear records: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (path, key, date, raw, minutes, amount, symbol, km, steps, mention)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("ledger: prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		mention := 0
		if r.Mention {
			mention = 1
		}
		if _, err := stmt.Exec(r.Path, r.Key, r.Date, r.Raw, r.Minutes, r.Amount, r.Symbol, r.Km, r.Steps, mention); err != nil {
			return fmt.Errorf("ledger: insert record: %w", err)
		}
		if err := ftsInsert(tx, r.Key, r.Date, r.Raw, r.Path); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and its records from the ledger.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteByPath(tx, path)
	_, _ = tx.Exec(`DELETE FROM records WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// AllChecksums returns the stored checksum per indexed file path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("ledger: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Keys returns every distinct record key, sorted.
func (db *DB) Keys() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT key FROM records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("ledger: keys: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Stats aggregates non-mention records grouped by key. prefix narrows to
// keys with that leading path, from/to bound the date range; empty strings
// disable the corresponding filter.
func (db *DB) Stats(prefix, from, to string) ([]KeyStats, error) {
	where := `mention = 0`
	var args []any
	if prefix != "" {
		where += ` AND (key = ? OR key LIKE ?)`
		args = append(args, prefix, prefix+".%")
	}
	if from != "" {
		where += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		where += ` AND date <= ?`
		args = append(args, to)
	}

	rows, err := db.conn.Query(`
		SELECT key, COUNT(*), COALESCE(SUM(minutes), 0), COALESCE(SUM(km), 0), COALESCE(SUM(steps), 0)
		FROM records
		WHERE `+where+`
		GROUP BY key
		ORDER BY key
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: stats: %w", err)
	}
	defer rows.Close()

	var out []KeyStats
	index := make(map[string]int)
	for rows.Next() {
		var s KeyStats
		if err := rows.Scan(&s.Key, &s.Records, &s.Minutes, &s.Km, &s.Steps); err != nil {
			return nil, err
		}
		index[s.Key] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	curRows, err := db.conn.Query(`
		SELECT key, symbol, COALESCE(SUM(amount), 0)
		FROM records
		WHERE `+where+` AND symbol != ''
		GROUP BY key, symbol
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: currency stats: %w", err)
	}
	defer curRows.Close()

	for curRows.Next() {
		var key, symbol string
		var amount float64
		if err := curRows.Scan(&key, &symbol, &amount); err != nil {
			return nil, err
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		if out[i].Currency == nil {
			out[i].Currency = make(map[string]float64)
		}
		out[i].Currency[symbol] = amount
	}
	return out, curRows.Err()
}

// Recent returns the newest records, most recent date first.
func (db *DB) Recent(limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path, key, date, raw, minutes, amount, symbol, km, steps, mention
		FROM records
		ORDER BY date DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: recent: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var mention int
		if err := rows.Scan(&r.Path, &r.Key, &r.Date, &r.Raw, &r.Minutes, &r.Amount, &r.Symbol, &r.Km, &r.Steps, &mention); err != nil {
			return nil, err
		}
		r.Mention = mention != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
