// Package app provides the application context and dependency wiring for
// the nhsmongifyer CLI: configuration, logging, metrics and the components
// each command assembles.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/internal/metrics"
	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// App represents the application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	stdout io.Writer

	// fixedLogger keeps a logger given through WithLogger across flag parsing
	fixedLogger bool

	mu      sync.Mutex
	metrics *metrics.Metrics
	closers []io.Closer
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		stdout:  os.Stdout,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Metrics returns the process-wide metrics, creating them on first use.
func (a *App) Metrics() *metrics.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	return a.metrics
}

func (a *App) onShutdown(c io.Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, c)
}

// Shutdown releases database handles and writes the metrics textfile when
// one is configured.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	m := a.metrics
	a.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m != nil && a.config.MetricsFile != "" {
		if err := m.WriteTextfile(a.config.MetricsFile); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Debug().Str("path", a.config.MetricsFile).Msg("Wrote metrics textfile")
		}
	}

	return errors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.fixedLogger = true
		return nil
	}
}

// WithStdout redirects command output.
func WithStdout(w io.Writer) Option {
	return func(a *App) error {
		a.stdout = w
		return nil
	}
}
