// Package lock implements the lease-style mutual exclusion marker guarding
// collection runs. A lock is a file holding its creation time; a lock older
// than the staleness threshold is presumed abandoned by a killed process
// and may be reclaimed.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
)

// Lease guards one archive tree. Acquire and Release bracket a run; the
// zero duration of protection is the file's existence, not process state,
// which is what lets a nightly job, a watcher, and a manual invocation
// coexist safely.
type Lease struct {
	path       string
	staleAfter time.Duration
	now        func() time.Time
}

// Option configures a Lease.
type Option func(*Lease)

// WithClock overrides the time source, letting staleness policy be tested
// without real filesystem timing.
func WithClock(now func() time.Time) Option {
	return func(l *Lease) {
		l.now = now
	}
}

// New creates a Lease at path. A held lock older than staleAfter is
// treated as stale and reclaimed on Acquire.
func New(path string, staleAfter time.Duration, opts ...Option) *Lease {
	l := &Lease{path: path, staleAfter: staleAfter, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire takes the lock. If a fresh lock exists it returns
// apperr.ErrLockHeld: another run owns the tree and this one must abort.
// A stale lock is deleted and re-created, reclaiming ownership from a
// presumed-crashed process.
func (l *Lease) Acquire() error {
	for attempt := 0; attempt < 2; attempt++ {
		err := l.create()
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("lock: acquire: %w", err)
		}

		age, ageErr := l.age()
		if ageErr != nil {
			// Lock vanished between create and stat; retry the create.
			if errors.Is(ageErr, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("lock: inspect: %w", ageErr)
		}
		if age < l.staleAfter {
			return apperr.ErrLockHeld
		}
		// Stale: the prior owner is presumed dead.
		if rmErr := os.Remove(l.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("lock: reclaim: %w", rmErr)
		}
	}
	return apperr.ErrLockHeld
}

// Release removes the lock. Missing files are fine: release must be safe
// to call unconditionally on every exit path.
func (l *Lease) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("lock: release: %w", err)
	}
	return nil
}

// create writes the lock file exclusively, recording the creation time.
func (l *Lease) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(l.now().UTC().Format(time.RFC3339Nano) + "\n")
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// age returns how long the current lock has been held, preferring the
// recorded timestamp and falling back to the file's mtime when the content
// is unreadable or mangled.
func (l *Lease) age() (time.Duration, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}
	if ts, perr := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data))); perr == nil {
		return l.now().Sub(ts), nil
	}
	info, err := os.Stat(l.path)
	if err != nil {
		return 0, err
	}
	return l.now().Sub(info.ModTime()), nil
}
