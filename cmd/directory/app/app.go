// Package app provides the application context and dependency management
// for the directory CLI: configuration, logging and the lazily built
// Directory shared by the commands.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/covidliste/directory"
	appconfig "github.com/covidliste/directory/internal/config"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/policy"
)

// App represents the directory application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer

	// lookup resolves credentials; environment and Viper by default
	lookup appconfig.Lookup

	mu        sync.Mutex
	policy    *policy.Policy
	directory directory.Directory
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		out:     os.Stdout,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "loading config", err)
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

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Policy returns the domain policy, loading it on first use.
func (a *App) Policy() (*policy.Policy, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadPolicy()
}

func (a *App) loadPolicy() (*policy.Policy, error) {
	if a.policy != nil {
		return a.policy, nil
	}
	p, err := policy.Load(a.config.PolicyFile)
	if err != nil {
		return nil, err
	}
	a.policy = p
	return p, nil
}

// Directory returns the directory instance, creating it lazily. Missing
// credentials are reported here, before anything is fetched.
func (a *App) Directory() (directory.Directory, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.directory != nil {
		return a.directory, nil
	}

	pol, err := a.loadPolicy()
	if err != nil {
		return nil, err
	}

	creds, err := appconfig.Load(a.lookup)
	if err != nil {
		return nil, err
	}

	d, err := directory.New(
		directory.WithPolicy(pol),
		directory.WithCredentials(creds),
		directory.WithOutput(a.config.Output),
		directory.WithPicturesDir(a.config.PicturesDir),
		directory.WithTimeout(a.config.Timeout),
		directory.WithWorkers(a.config.Workers),
	)
	if err != nil {
		return nil, err
	}

	a.directory = d
	return d, nil
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.logger.Debug().Msg("Shutdown complete")
	return nil
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
		return nil
	}
}

// WithDirectory sets a custom directory instance (useful for testing).
func WithDirectory(d directory.Directory) Option {
	return func(a *App) error {
		a.directory = d
		return nil
	}
}

// WithWriter sets where command output is printed.
func WithWriter(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// WithLookup sets how credentials are resolved.
func WithLookup(lookup appconfig.Lookup) Option {
	return func(a *App) error {
		a.lookup = lookup
		return nil
	}
}
