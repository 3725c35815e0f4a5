package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Instance roles. Exactly one machine in a synchronized setup runs as the
// writer; every other machine consumes already-finalized archives.
const (
	RoleWriter = "writer"
	RoleReader = "reader"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Journal JournalConfig     `yaml:"journal"`
	Archive ArchiveConfig     `yaml:"archive"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Lock    LockConfig        `yaml:"lock"`
	Watch   WatchConfig       `yaml:"watch"`
	Role    string            `yaml:"role"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.Archive.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Lock.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	if c.Role == "" {
		c.Role = RoleWriter
	}
	if err := validation.Validate(c.Role, validation.In(RoleWriter, RoleReader)); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	return c.Auth.Validate()
}

// IsWriter reports whether this instance may mutate archives.
func (c *Config) IsWriter() bool {
	return c.Role == RoleWriter
}

// LockPath returns the configured lock file path, defaulting to a dotfile
// inside the archive root so the lock travels with the tree it guards.
func (c *Config) LockPath() string {
	if c.Lock.Path != "" {
		return c.Lock.Path
	}
	return filepath.Join(c.Archive.Path, ".dagaz.lock")
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration for serve mode.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// JournalConfig holds the path to the journal source directory.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ArchiveConfig holds the archive output directory and its two routing
// targets, both relative to Path.
type ArchiveConfig struct {
	Path          string `yaml:"path"`
	ActivitiesDir string `yaml:"activities_dir"`
	ProjectsDir   string `yaml:"projects_dir"`
}

// Validate validates the archive configuration.
func (c *ArchiveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ActivitiesDir, validation.Required),
		validation.Field(&c.ProjectsDir, validation.Required),
	)
}

// SQLiteConfig holds the ledger database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// LockConfig holds the lease lock settings. A lock older than the stale
// threshold is presumed abandoned by a crashed run and reclaimed.
type LockConfig struct {
	Path              string `yaml:"path"`
	StaleAfterMinutes int    `yaml:"stale_after_minutes"`
}

// StaleAfter returns the staleness threshold as a duration.
func (c *LockConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterMinutes) * time.Minute
}

// Validate validates the lock configuration.
func (c *LockConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StaleAfterMinutes, validation.Required, validation.Min(1)),
	)
}

// WatchConfig holds the journal watcher settings.
type WatchConfig struct {
	DebounceSeconds int `yaml:"debounce_seconds"`
}

// Debounce returns the debounce window as a duration.
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DebounceSeconds, validation.Required, validation.Min(1)),
	)
}

// AuthConfig holds authentication configuration for serve mode.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Journal: JournalConfig{
			Path: "./journal",
		},
		Archive: ArchiveConfig{
			Path:          "./archive",
			ActivitiesDir: "activities",
			ProjectsDir:   "projects",
		},
		SQLite: SQLiteConfig{
			Path: "./dagaz.db",
		},
		Lock: LockConfig{
			StaleAfterMinutes: 10,
		},
		Watch: WatchConfig{
			DebounceSeconds: 2,
		},
		Role: RoleWriter,
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
