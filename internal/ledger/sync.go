package ledger

import (
	"log/slog"
	"path"
	"strings"

	"github.com/starford/dagaz/internal/archive"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/notation"
	"github.com/starford/dagaz/internal/storage"
)

// Sync walks the archive dirs and brings the ledger up to date:
//   - new/changed files are reparsed and their records replaced
//   - files removed from disk are deleted from the ledger
//
// Checksums make the common case (nothing changed) a cheap no-op.
func Sync(db *DB, store storage.Provider, logger *slog.Logger, dirs ...string) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{})
	for _, dir := range dirs {
		metas, err := store.List(dir)
		if err != nil {
			return err
		}
		for _, m := range metas {
			disk[m.Path] = struct{}{}

			if checksums[m.Path] == m.Checksum {
				continue
			}

			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			if err := indexFile(db, m.Path, m.Checksum, data); err != nil {
				logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: indexed", slog.String("path", m.Path))
			}
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses one archive document into ledger rows.
func indexFile(db *DB, p, checksum string, data []byte) error {
	key := keyFromPath(p)
	entries := archive.Entries(data)
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, rowFrom(p, key, e))
	}
	return db.ReplaceFile(p, key, checksum, rows)
}

// rowFrom re-classifies a collected line so the ledger carries its numeric
// attributes. Mention lines are kept as-is and excluded from aggregation.
func rowFrom(p, key string, e archive.Entry) Row {
	row := Row{Path: p, Key: key, Date: e.Date, Raw: e.Line}
	if strings.HasPrefix(e.Line, "Mention: ") {
		row.Mention = true
		return row
	}
	for _, a := range notation.ClassifyValue(e.Line) {
		switch a.Kind {
		case models.KindDuration, models.KindTimeSpan:
			row.Minutes += a.Minutes
		case models.KindCurrency:
			row.Amount += a.Amount
			row.Symbol = a.Symbol
		case models.KindDistance:
			row.Km += a.Km
		case models.KindStepCount:
			row.Steps += a.Steps
		}
	}
	return row
}

// keyFromPath derives the fully-qualified key from an archive filename.
func keyFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}
