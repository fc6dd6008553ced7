package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"task-list/internal/api"
	"task-list/internal/cli"
	"task-list/internal/config"
	"task-list/internal/logging"
	"task-list/internal/media"
	"task-list/internal/taskstore"
	"task-list/internal/validation"
)

// Environment represents the current environment
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// EnvironmentVar selects the environment
const EnvironmentVar = "TL_ENV"

// RuntimeFactory builds the task list stack for an environment
type RuntimeFactory struct {
	env Environment
}

// NewRuntimeFactory creates a new runtime factory for the given environment
func NewRuntimeFactory(env Environment) *RuntimeFactory {
	return &RuntimeFactory{env: env}
}

// Build wires logger, storage, task store, media and API from cfg
func (rf *RuntimeFactory) Build(cfg *config.Config) (*cli.Runtime, error) {
	rf.adapt(cfg)

	logger, err := logging.New(cfg.Logging, cfg.Application.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger = logger.With(zap.String("env", string(rf.env)))

	kv, err := config.CreateStore(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	store := taskstore.New(kv,
		taskstore.FromConfig(cfg),
		taskstore.WithLogger(logger.Named("taskstore")),
	)
	mediaService := media.NewService(cfg.Media, logger.Named("media"))
	apiInstance := api.New(store, mediaService, logger.Named("api"),
		api.WithValidator(validation.NewTaskValidatorWithConfig(cfg)),
	)

	logger.Debug("runtime ready",
		zap.String("backend", cfg.Database.Backend),
		zap.String("key", cfg.Storage.Key))

	return &cli.Runtime{
		API:    apiInstance,
		Logger: logger,
		Close: func() error {
			err := kv.Close()
			_ = logger.Sync()
			return err
		},
	}, nil
}

// adapt applies the environment's storage defaults on top of cfg
func (rf *RuntimeFactory) adapt(cfg *config.Config) {
	switch rf.env {
	case Development:
		// A local database file in the working directory
		if cwd, err := os.Getwd(); err == nil {
			cfg.Database.Dir = cwd
		}
		cfg.Database.Filename = "tl.db"
	case Testing:
		cfg.Database.Backend = config.BackendMemory
	}
}

// getEnvironment determines the current environment
func getEnvironment() Environment {
	switch Environment(os.Getenv(EnvironmentVar)) {
	case Development:
		return Development
	case Testing:
		return Testing
	default:
		// Default to production for safety
		return Production
	}
}

// exitCode maps configuration problems to 2 and everything else to 1
func exitCode(err error) int {
	var cfgErr *config.ConfigError
	if stderrors.As(err, &cfgErr) {
		return 2
	}
	return 1
}

// databaseLabel names the storage in verbose output
func databaseLabel(cfg *config.Config) string {
	if cfg.Database.Backend == config.BackendMemory {
		return "memory"
	}
	return filepath.Clean(cfg.GetDatabasePath())
}
