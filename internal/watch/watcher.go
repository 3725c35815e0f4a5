// Package watch triggers collection runs from journal file changes.
// Change bursts (editors write several events per save) are debounced into
// a single run; the run itself is guarded by the lease lock, so overlapping
// triggers from other machines or the nightly batch degrade into skips.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dagaz/internal/apperr"
)

// Watch starts an fsnotify watcher on the journal root and invokes run
// after each debounced change burst, until ctx is cancelled. New
// directories created at runtime are added to the watch list.
//
// run errors never stop the watcher: lock contention is logged at info
// (another owner is active, which is normal), everything else at error.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, run func(context.Context) error) error {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started",
		slog.String("root", root),
		slog.String("debounce", debounce.String()))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			logger.Debug("watcher: change burst settled, collecting")
			if err := run(ctx); err != nil {
				if errors.Is(err, apperr.ErrLockHeld) {
					logger.Info("watcher: run skipped, lock held by another run")
				} else {
					logger.Error("watcher: run failed", slog.String("error", err.Error()))
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}

			if !journalFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func journalFile(path string) bool {
	return strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".txt")
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
