package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"task-list/internal/kvstore"
	"task-list/internal/kvstore/memory"
	"task-list/internal/kvstore/sqlite"
)

// CreateStore opens the key-value backend selected by the configuration
func CreateStore(config *Config, logger *zap.Logger) (kvstore.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.Database.Backend {
	case BackendMemory:
		logger.Debug("using in-memory kv store")
		return memory.New(), nil
	case BackendSQLite, "":
	default:
		return nil, &ConfigError{Field: "database.backend", Message: fmt.Sprintf("unknown backend %q", config.Database.Backend)}
	}

	if err := os.MkdirAll(config.Database.Dir, os.FileMode(config.Database.DirPermissions)); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := sqlite.New(config.GetDatabasePath(),
		sqlite.WithQueryTimeout(config.Database.QueryTimeout),
		sqlite.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// CreateTestStore creates an in-memory SQLite store for testing
func CreateTestStore() (kvstore.Store, error) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test database: %w", err)
	}
	return store, nil
}
