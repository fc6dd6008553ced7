package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"task-list/internal/api"
	"task-list/internal/config"
)

// App represents the main CLI application
type App struct {
	api      api.API
	config   *config.Config
	logger   *zap.Logger
	registry *CommandRegistry
	out      io.Writer
	errOut   io.Writer
	in       io.Reader
}

// AppOption configures an App
type AppOption func(*App)

// WithOutput redirects command output, stdout by default.
func WithOutput(w io.Writer) AppOption {
	return func(a *App) { a.out = w }
}

// WithErrorOutput redirects warnings, stderr by default.
func WithErrorOutput(w io.Writer) AppOption {
	return func(a *App) { a.errOut = w }
}

// WithInput sets where confirmation prompts read from, stdin by default.
func WithInput(r io.Reader) AppOption {
	return func(a *App) { a.in = r }
}

// WithAppLogger sets the logger handed to long-running commands.
func WithAppLogger(logger *zap.Logger) AppOption {
	return func(a *App) { a.logger = logger }
}

// NewApp creates a new CLI application instance with dependency injection
func NewApp(apiInstance api.API, opts ...AppOption) *App {
	return NewAppWithConfig(apiInstance, config.NewConfig(), opts...)
}

// NewAppWithConfig creates a CLI application bound to a loaded configuration
func NewAppWithConfig(apiInstance api.API, cfg *config.Config, opts ...AppOption) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	app := &App{
		api:    apiInstance,
		config: cfg,
		logger: zap.NewNop(),
		out:    os.Stdout,
		errOut: os.Stderr,
		in:     os.Stdin,
	}
	for _, opt := range opts {
		opt(app)
	}
	app.registry = NewCommandRegistry(app)
	return app
}

// Run executes the CLI application with the given arguments
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", a.registry.GetUsage())
	}

	commandName := args[0]
	commandArgs := args[1:]

	return a.registry.Execute(ctx, commandName, commandArgs)
}
