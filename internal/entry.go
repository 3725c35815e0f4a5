// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/api"
	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/collector"
	"github.com/starford/dagaz/internal/ledger"
	"github.com/starford/dagaz/internal/lock"
	"github.com/starford/dagaz/internal/mcpserver"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/notation"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/watch"
)

var fileDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func newApplication(opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger initializes a structured JSON logger writing to w and installs
// it as the slog default.
func (a *application) newLogger(w io.Writer) *slog.Logger {
	level := a.config.App.LogLevel
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// openJournal opens the journal source directory. A missing directory is a
// startup error, not something to create on the fly: an empty tree silently
// collecting nothing is worse than failing loudly.
func (a *application) openJournal() (*storage.FS, error) {
	store, err := storage.NewFS(a.config.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return store, nil
}

// openArchive opens the archive output tree, creating it and its routing
// subdirectories when absent.
func (a *application) openArchive() (*storage.FS, error) {
	cfg := a.config.Archive
	for _, d := range []string{
		cfg.Path,
		filepath.Join(cfg.Path, cfg.ActivitiesDir),
		filepath.Join(cfg.Path, cfg.ProjectsDir),
	} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	return storage.NewFS(cfg.Path)
}

func (a *application) archiveDirs() []string {
	return []string{a.config.Archive.ActivitiesDir, a.config.Archive.ProjectsDir}
}

// dateFor resolves the journal date for a file: a YYYY-MM-DD filename stem
// wins, then the explicit --date flag, then today.
func (a *application) dateFor(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if fileDateRe.MatchString(stem) {
		return stem
	}
	if a.date != "" {
		return a.date
	}
	return time.Now().Format("2006-01-02")
}

// parseJournal reads every journal file and parses its notation. Malformed
// segments are recovered locally by the parser; their diagnostics surface
// here at debug level.
func (a *application) parseJournal(logger *slog.Logger) ([]models.Record, error) {
	journal, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	metas, err := journal.List("")
	if err != nil {
		return nil, err
	}
	var records []models.Record
	for _, m := range metas {
		data, err := journal.Read(m.Path)
		if err != nil {
			return nil, err
		}
		recs, diags := notation.Parse(string(data), a.dateFor(m.Path))
		for _, d := range diags {
			logger.Debug("segment skipped",
				slog.String("file", m.Path),
				slog.String("segment", d.Segment),
				slog.String("reason", d.Message))
		}
		for _, rec := range recs {
			for _, attr := range rec.Attributes {
				logger.Debug("token classified",
					slog.String("key", rec.Key),
					slog.String("token", attr.Literal),
					slog.String("kind", attr.Kind.String()))
			}
		}
		records = append(records, recs...)
	}
	return records, nil
}

// runCollection performs one full collection pass: parse the journal, file
// records into the archive, expand parent placeholders. Real runs hold the
// lease lock for their whole duration; dry runs write nothing and skip it.
func (a *application) runCollection(logger *slog.Logger) (*collector.Result, error) {
	if !a.config.IsWriter() {
		return nil, apperr.ErrReadOnlyRole
	}

	if !a.dryRun {
		lease := lock.New(a.config.LockPath(), a.config.Lock.StaleAfter())
		if err := lease.Acquire(); err != nil {
			return nil, err
		}
		defer func() {
			if err := lease.Release(); err != nil {
				logger.Warn("lock release failed", slog.String("error", err.Error()))
			}
		}()
	}

	records, err := a.parseJournal(logger)
	if err != nil {
		return nil, err
	}

	store, err := a.openArchive()
	if err != nil {
		return nil, err
	}

	col := collector.New(store, logger, a.config.Archive.ActivitiesDir, a.config.Archive.ProjectsDir, a.dryRun)
	res, err := col.Collect(records)
	if err != nil {
		return nil, err
	}

	if !a.dryRun {
		linked, err := collector.Link(store, logger, a.archiveDirs()...)
		if err != nil {
			return res, err
		}
		if linked > 0 {
			logger.Info("parent archives updated", slog.Int("files", linked))
		}
	}
	return res, nil
}

// Collect runs a single collection pass and exits.
func Collect(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stdout)

	res, err := app.runCollection(logger)
	if errors.Is(err, apperr.ErrLockHeld) {
		// Another run is already collecting the same journal; its pass
		// covers our trigger, so this is a clean no-op.
		logger.Info("another run holds the lock, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	if app.dryRun {
		for _, d := range res.Diffs {
			fmt.Println(d)
		}
	}
	logger.Info("collection complete",
		slog.Int("appended", res.Appended),
		slog.Int("skipped", res.Skipped),
		slog.Bool("dry_run", app.dryRun))
	return nil
}

// Link expands the {Auto-generated} placeholder in parent archives without
// touching the journal.
func Link(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stdout)

	if !app.config.IsWriter() {
		return apperr.ErrReadOnlyRole
	}

	lease := lock.New(app.config.LockPath(), app.config.Lock.StaleAfter())
	if err := lease.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lease.Release(); err != nil {
			logger.Warn("lock release failed", slog.String("error", err.Error()))
		}
	}()

	store, err := app.openArchive()
	if err != nil {
		return err
	}
	linked, err := collector.Link(store, logger, app.archiveDirs()...)
	if err != nil {
		return err
	}
	logger.Info("link complete", slog.Int("files", linked))
	return nil
}

// Watch runs collection passes on journal changes until interrupted. Each
// save is debounced so a burst of editor writes triggers one pass.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stdout)

	if !app.config.IsWriter() {
		return apperr.ErrReadOnlyRole
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(context.Context) error {
		res, err := app.runCollection(logger)
		if err != nil {
			return err
		}
		logger.Info("collection complete",
			slog.Int("appended", res.Appended),
			slog.Int("skipped", res.Skipped))
		return nil
	}

	// Catch up on edits made while the watcher was down, then follow along.
	if err := run(ctx); err != nil && !errors.Is(err, apperr.ErrLockHeld) {
		return err
	}

	logger.Info("watching journal",
		slog.String("path", app.config.Journal.Path),
		slog.Duration("debounce", app.config.Watch.Debounce()))
	return watch.Watch(ctx, app.config.Journal.Path, app.config.Watch.Debounce(), logger, run)
}

// Stats syncs the ledger from the archive tree and prints per-key
// aggregates to out.
func Stats(ctx context.Context, out io.Writer, prefix, from, to string, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stderr)

	store, err := app.openArchive()
	if err != nil {
		return err
	}
	db, err := ledger.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	if err := ledger.Sync(db, store, logger, app.archiveDirs()...); err != nil {
		return err
	}

	stats, err := db.Stats(prefix, from, to)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tRECORDS\tMINUTES\tKM\tSTEPS\tCURRENCY")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%d\t%s\n",
			s.Key, s.Records, s.Minutes, s.Km, s.Steps, formatCurrency(s.Currency))
	}
	return w.Flush()
}

func formatCurrency(totals map[string]float64) string {
	if len(totals) == 0 {
		return "-"
	}
	symbols := make([]string, 0, len(totals))
	for sym := range totals {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	parts := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		parts = append(parts, fmt.Sprintf("%s%.2f", sym, totals[sym]))
	}
	return strings.Join(parts, " ")
}

// Serve starts the read API with SSE updates and, on writer instances, the
// journal watcher feeding it.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stdout)
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("archive_path", cfg.Archive.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("role", cfg.Role),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := app.openArchive()
	if err != nil {
		return err
	}

	db, err := ledger.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := ledger.Sync(db, store, logger, app.archiveDirs()...); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API service and router.
	svc := api.NewService(store, db)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Writer instances also watch the journal; readers serve finalized
	// archives only.
	if cfg.IsWriter() {
		run := func(context.Context) error {
			res, err := app.runCollection(logger)
			if err != nil {
				return err
			}
			if err := ledger.Sync(db, store, logger, app.archiveDirs()...); err != nil {
				logger.Warn("ledger sync failed", slog.String("error", err.Error()))
			}
			for _, p := range res.Touched {
				broker.PublishArchiveEvent(p)
			}
			broker.PublishRunEvent(res.Appended, res.Skipped)
			return nil
		}
		g.Go(func() error {
			return watch.Watch(gCtx, cfg.Journal.Path, cfg.Watch.Debounce(), logger, run)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut the HTTP server down when a signal or group error cancels
	// the context.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// MCP serves the archive and ledger to MCP clients over stdio. Logs go to
// stderr; stdout carries the protocol.
func MCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stderr)

	store, err := app.openArchive()
	if err != nil {
		return err
	}
	db, err := ledger.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	if err := ledger.Sync(db, store, logger, app.archiveDirs()...); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server listening on stdio")
	return mcpserver.New(store, db).ServeStdio()
}
