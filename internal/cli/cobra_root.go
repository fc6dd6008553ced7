package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"task-list/internal/api"
	"task-list/internal/config"
	"task-list/internal/media"
	"task-list/internal/validation"
)

// Runtime is what one invocation runs against. Close releases whatever the
// factory opened, after the API has been shut down.
type Runtime struct {
	API    api.API
	Logger *zap.Logger
	Close  func() error
}

// RuntimeFactory builds the runtime once the configuration is known
type RuntimeFactory func(cfg *config.Config) (*Runtime, error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd     *cobra.Command
	factory RuntimeFactory
	config  *config.Config
	runtime *Runtime
	appOpts []AppOption
	errOut  io.Writer
}

// NewRootCommand creates the root cobra command with global flags. The
// factory runs after flags are parsed, before any subcommand.
func NewRootCommand(factory RuntimeFactory, opts ...AppOption) *RootCommand {
	root := &RootCommand{
		factory: factory,
		appOpts: opts,
		errOut:  os.Stderr,
	}
	probe := &App{}
	for _, opt := range opts {
		opt(probe)
	}
	if probe.errOut != nil {
		root.errOut = probe.errOut
	}

	root.cmd = &cobra.Command{
		Use:   "tl",
		Short: "A command-line task list",
		Long: `Task List (tl) keeps a simple list of tasks, each with a name, an optional
description and an optional photo, and remembers it between runs.

EXAMPLES:
  tl add Buy milk -d "2 litres"          # Add a task
  tl add Fix the fence --image fence.jpg # Add a task with an existing photo
  tl add Receipt --photo                 # Add a task with the newest camera capture
  tl list                                # List tasks in the order they were added
  tl toggle 1718000000000                # Mark a task done (or not done)
  tl delete 1718000000000                # Delete a task after confirming
  tl serve --addr 127.0.0.1:8080         # Serve the list over HTTP

CONFIGURATION:
  Configuration follows this priority order:
  command-line flags > environment variables > config file > defaults

  TL_CONFIG                  YAML config file
  TL_DB_DIR                  Database directory (default: ~/.tl)
  TL_DB_FILENAME             Database filename (default: tl.db)
  TL_DB_BACKEND              Storage backend, sqlite or memory (default: sqlite)
  TL_DB_QUERY_TIMEOUT        Query timeout (default: 10s)
  TL_DB_WRITE_TIMEOUT        Write timeout (default: 5s)
  TL_STORAGE_KEY             Key the task list is saved under (default: tasks)
  TL_VALIDATION_TASK_NAME_MAX    Max task name length (default: 0, unlimited)
  TL_VALIDATION_DESCRIPTION_MAX  Max description length (default: 0, unlimited)
  TL_CAMERA_ENABLED          Allow photo capture (default: true)
  TL_CAMERA_DIR              Directory the camera saves captures to (default: ~/.tl/camera)
  TL_PHOTO_DIR               Directory captured photos are kept in (default: ~/.tl/photos)
  TL_APP_TIMEOUT             Application timeout (default: 60s)
  TL_APP_VERBOSE             Enable verbose output (default: false)
  TL_LOG_LEVEL               Log level (default: warn)
  TL_LOG_FORMAT              Log format, console or json (default: console)
  TL_SERVER_ADDR             Address for tl serve (default: 127.0.0.1:8080)
  TL_DEBUG                   Any value forces debug logging`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.initialize(cmd)
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Command exposes the underlying cobra command
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Config returns the configuration the last invocation ran with
func (r *RootCommand) Config() *config.Config {
	return r.config
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command and always shuts the runtime down,
// so queued writes reach storage even when a command fails.
func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	err := r.cmd.ExecuteContext(ctx)
	if shutdownErr := r.shutdown(); err == nil {
		err = shutdownErr
	}
	return err
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("config", "", "YAML config file (overrides TL_CONFIG)")

	// Database configuration
	flags.String("db-dir", "", "Database directory (overrides TL_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides TL_DB_FILENAME)")
	flags.String("backend", "", "Storage backend: sqlite or memory (overrides TL_DB_BACKEND)")
	flags.Duration("db-query-timeout", 0, "Database query timeout (overrides TL_DB_QUERY_TIMEOUT)")
	flags.Duration("db-write-timeout", 0, "Database write timeout (overrides TL_DB_WRITE_TIMEOUT)")
	flags.String("storage-key", "", "Key the task list is saved under (overrides TL_STORAGE_KEY)")

	// Media configuration
	flags.Bool("camera", true, "Allow photo capture (overrides TL_CAMERA_ENABLED)")
	flags.String("camera-dir", "", "Directory the camera saves captures to (overrides TL_CAMERA_DIR)")
	flags.String("photo-dir", "", "Directory captured photos are kept in (overrides TL_PHOTO_DIR)")

	// Application configuration
	flags.Duration("app-timeout", 0, "Application timeout (overrides TL_APP_TIMEOUT)")
	flags.Bool("verbose", false, "Enable verbose output (overrides TL_APP_VERBOSE)")

	// Logging configuration
	flags.String("log-level", "", "Log level: debug, info, warn or error (overrides TL_LOG_LEVEL)")
	flags.String("log-format", "", "Log format: console or json (overrides TL_LOG_FORMAT)")
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  "List every task in the order it was added, with its done state and photo marker.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()

			return NewListCommand(r.app()).Execute(ctx, args)
		},
	}

	var addOpts AddOptions
	addCmd := &cobra.Command{
		Use:   "add <name...>",
		Short: "Add a task",
		Long: `Add a task to the end of the list. Every argument becomes part of the name.

A photo can be attached from an existing image file with --image, or taken
from the camera with --photo. Backing out of either still adds the task.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()

			return NewAddCommand(r.app(), addOpts).Execute(ctx, args)
		},
	}
	addCmd.Flags().StringVarP(&addOpts.Description, "description", "d", "", "Task description")
	addCmd.Flags().StringVar(&addOpts.ImagePath, "image", "", "Attach an existing image file")
	addCmd.Flags().BoolVar(&addOpts.Photo, "photo", false, "Attach the newest camera capture")
	addCmd.MarkFlagsMutuallyExclusive("image", "photo")

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()

			return NewToggleCommand(r.app()).Execute(ctx, args)
		},
	}

	var deleteOpts DeleteOptions
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Long: `Delete a task from the list. You will be asked to confirm unless --yes is
given. This operation cannot be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Interactive commands get a longer timeout
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout()*2)
			defer cancel()

			return NewDeleteCommand(r.app(), deleteOpts).Execute(ctx, args)
		},
	}
	deleteCmd.Flags().BoolVarP(&deleteOpts.Yes, "yes", "y", false, "Delete without asking")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()

			return NewShowCommand(r.app()).Execute(ctx, args)
		},
	}

	permissionCmd := &cobra.Command{
		Use:   "permission",
		Short: "Show whether photos can be taken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()

			return NewPermissionCommand(r.app()).Execute(ctx, args)
		},
	}

	var serveOpts ServeOptions
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task list over HTTP",
		Long: `Serve the task list as JSON over HTTP until interrupted.

Routes:
  GET    /tasks               list tasks
  POST   /tasks               add a task
  GET    /tasks/{id}          show one task
  POST   /tasks/{id}/toggle   mark a task done or not done
  DELETE /tasks/{id}          delete a task`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return NewServeCommand(r.app(), serveOpts).Execute(ctx, args)
		},
	}
	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", "", "Listen address (overrides TL_SERVER_ADDR)")

	r.cmd.AddCommand(
		listCmd,
		addCmd,
		toggleCmd,
		deleteCmd,
		showCmd,
		permissionCmd,
		serveCmd,
	)
}

// initialize loads configuration, builds the runtime and runs startup
func (r *RootCommand) initialize(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().LoadWithOverrides(r.getOverridesFromFlags())
	if err != nil {
		return err
	}
	r.config = cfg

	runtime, err := r.factory(cfg)
	if err != nil {
		return NewErrorHandler().Handle("start", err)
	}
	if runtime.Logger == nil {
		runtime.Logger = zap.NewNop()
	}
	r.runtime = runtime

	ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
	defer cancel()
	report := runtime.API.Startup(ctx)

	if report.Load.Err != nil {
		fmt.Fprintf(r.errOut, "Warning: %s\n", validation.UserMessage(report.Load.Err))
	}
	if report.Camera != media.PermissionGranted && cfg.Application.Verbose {
		fmt.Fprintf(r.errOut, "Note: %s\n", report.CameraMessage)
	}
	return nil
}

// app builds the handler context for the current runtime
func (r *RootCommand) app() *App {
	opts := make([]AppOption, 0, len(r.appOpts)+1)
	opts = append(opts, WithAppLogger(r.runtime.Logger))
	opts = append(opts, r.appOpts...)
	return NewAppWithConfig(r.runtime.API, r.config, opts...)
}

// shutdown drains pending writes and releases the runtime
func (r *RootCommand) shutdown() error {
	runtime := r.runtime
	if runtime == nil {
		return nil
	}
	r.runtime = nil

	ctx, cancel := context.WithTimeout(context.Background(), r.getAppTimeout())
	defer cancel()

	err := runtime.API.Shutdown(ctx)
	if err != nil {
		runtime.Logger.Error("failed to save pending changes", zap.Error(err))
		err = NewErrorHandler().HandleSimple(err)
	}
	if runtime.Close != nil {
		err = stderrors.Join(err, runtime.Close())
	}
	return err
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.config != nil && r.config.Application.Timeout > 0 {
		return r.config.Application.Timeout
	}
	return 60 * time.Second
}

// getOverridesFromFlags collects the global flags the user actually set
func (r *RootCommand) getOverridesFromFlags() *config.ConfigOverrides {
	flags := r.cmd.PersistentFlags()
	overrides := &config.ConfigOverrides{}

	stringFlag := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		value, _ := flags.GetString(name)
		value = strings.TrimSpace(value)
		return &value
	}
	durationFlag := func(name string) *time.Duration {
		if !flags.Changed(name) {
			return nil
		}
		value, _ := flags.GetDuration(name)
		return &value
	}
	boolFlag := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		value, _ := flags.GetBool(name)
		return &value
	}

	overrides.ConfigFile = stringFlag("config")

	overrides.DBDir = stringFlag("db-dir")
	overrides.DBFilename = stringFlag("db-filename")
	overrides.DBBackend = stringFlag("backend")
	overrides.DBQueryTimeout = durationFlag("db-query-timeout")
	overrides.DBWriteTimeout = durationFlag("db-write-timeout")
	overrides.StorageKey = stringFlag("storage-key")

	overrides.CameraEnabled = boolFlag("camera")
	overrides.CaptureDir = stringFlag("camera-dir")
	overrides.LibraryDir = stringFlag("photo-dir")

	overrides.Timeout = durationFlag("app-timeout")
	overrides.Verbose = boolFlag("verbose")

	overrides.LogLevel = stringFlag("log-level")
	overrides.LogFormat = stringFlag("log-format")

	return overrides
}
