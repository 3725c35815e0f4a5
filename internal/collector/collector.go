// Package collector routes parsed records into per-activity archive files
// exactly once, and maintains the derived parent/child cross-references.
package collector

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/dagaz/internal/archive"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
)

// RemindersFile is the archive receiving reserved-key r records.
const RemindersFile = "reminders.md"

// Collector files records into the archive tree.
type Collector struct {
	store         storage.Provider
	logger        *slog.Logger
	activitiesDir string
	projectsDir   string
	dryRun        bool
}

// Result summarises one collection run.
type Result struct {
	Appended int
	Skipped  int
	Touched  []string // paths written this run, deduplicated, in append order
	Diffs    []string // dry-run only: intended appends as "path: + line"
}

func (r *Result) touch(path string) {
	for _, p := range r.Touched {
		if p == path {
			return
		}
	}
	r.Touched = append(r.Touched, path)
}

// New creates a Collector writing under the given archive store. The two
// dirs are relative to the store root. With dryRun set, Collect performs
// the full pipeline but writes nothing and reports intended diffs.
func New(store storage.Provider, logger *slog.Logger, activitiesDir, projectsDir string, dryRun bool) *Collector {
	return &Collector{
		store:         store,
		logger:        logger,
		activitiesDir: activitiesDir,
		projectsDir:   projectsDir,
		dryRun:        dryRun,
	}
}

// appendOp is one line destined for one dated section of one file.
type appendOp struct {
	path string
	key  string
	date string
	line string
}

// Collect files every record, skipping lines that already exist in the
// target day section. Running Collect twice over the same records and
// archive state appends nothing the second time.
//
// Dedup happens twice per line: once against the copy of the file loaded
// at the start of the run, and again against a fresh read immediately
// before the write, closing the window against a concurrent writer.
func (c *Collector) Collect(records []models.Record) (*Result, error) {
	res := &Result{}
	cache := make(map[string][]byte)

	for _, rec := range records {
		ops := []appendOp{{
			path: c.pathFor(rec.Key),
			key:  c.scaffoldKey(rec.Key),
			date: rec.Date,
			line: rec.RawValue,
		}}
		for _, target := range rec.Mentions() {
			ops = append(ops, appendOp{
				path: c.pathFor(target),
				key:  target,
				date: rec.Date,
				line: "Mention: [[" + rec.Key + "]] " + rec.RawValue,
			})
		}

		for _, op := range ops {
			if err := c.apply(op, cache, res); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Info("collector: run complete",
		slog.Int("appended", res.Appended),
		slog.Int("skipped", res.Skipped),
		slog.Bool("dry_run", c.dryRun))
	return res, nil
}

func (c *Collector) apply(op appendOp, cache map[string][]byte, res *Result) error {
	data, ok := cache[op.path]
	if !ok {
		var err error
		data, err = c.load(op.path, op.key)
		if err != nil {
			return err
		}
		cache[op.path] = data
	}

	if archive.HasEntry(data, op.date, op.line) {
		res.Skipped++
		c.logger.Debug("collector: duplicate skipped",
			slog.String("path", op.path), slog.String("line", op.line))
		return nil
	}

	if c.dryRun {
		cache[op.path] = archive.AppendEntry(data, op.date, op.line)
		res.Appended++
		res.Diffs = append(res.Diffs, fmt.Sprintf("%s: + [%s] %s", op.path, op.date, op.line))
		return nil
	}

	// Re-read right before writing; another run may have appended the same
	// line since this file was first loaded.
	if fresh, err := c.store.Read(op.path); err == nil {
		data = fresh
		if archive.HasEntry(data, op.date, op.line) {
			cache[op.path] = data
			res.Skipped++
			return nil
		}
	}

	updated := archive.AppendEntry(data, op.date, op.line)
	if err := c.store.Write(op.path, updated); err != nil {
		return fmt.Errorf("collector: append to %s: %w", op.path, err)
	}
	cache[op.path] = updated
	res.Appended++
	res.touch(op.path)
	c.logger.Debug("collector: appended",
		slog.String("path", op.path), slog.String("date", op.date), slog.String("line", op.line))
	return nil
}

// load reads an existing archive file or scaffolds a new one. Only a
// missing file falls back to the scaffold; any other read failure is an
// I/O error and fatal for the run.
func (c *Collector) load(p, key string) ([]byte, error) {
	data, err := c.store.Read(p)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return archive.Scaffold(key), nil
	}
	return nil, fmt.Errorf("collector: load %s: %w", p, err)
}

// pathFor maps a fully-qualified key onto its archive file. Reminder
// records share one file; project keys live in the project dir; everything
// else gets one file per key in the activity-log dir.
func (c *Collector) pathFor(key string) string {
	if key == models.ReminderKey {
		return path.Join(c.activitiesDir, RemindersFile)
	}
	if strings.HasPrefix(key, models.ProjectPrefix) {
		return path.Join(c.projectsDir, key+".md")
	}
	return path.Join(c.activitiesDir, key+".md")
}

func (c *Collector) scaffoldKey(key string) string {
	if key == models.ReminderKey {
		return "reminders"
	}
	return key
}
