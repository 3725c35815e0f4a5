package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	dryRun  bool
	verbose bool
	date    string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDryRun makes collection runs report intended appends without writing.
func WithDryRun(dryRun bool) Option {
	return func(a *application) {
		a.dryRun = dryRun
	}
}

// WithVerbose lowers the log level to debug, surfacing per-segment parser
// diagnostics and per-line dedup decisions.
func WithVerbose(verbose bool) Option {
	return func(a *application) {
		a.verbose = verbose
	}
}

// WithDate sets the fallback date for journal files whose names do not
// carry one. Defaults to today.
func WithDate(date string) Option {
	return func(a *application) {
		a.date = date
	}
}
