package config

import (
	"os"
	"path/filepath"
	"time"
)

// Storage backends understood by CreateStore.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultStorageKey is the fixed key the task list snapshot is stored under.
const DefaultStorageKey = "tasks"

// Config holds all configuration options for the task list application
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Storage     StorageConfig     `yaml:"storage"`
	Validation  ValidationConfig  `yaml:"validation"`
	Media       MediaConfig       `yaml:"media"`
	Application ApplicationConfig `yaml:"application"`
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Dir            string        `yaml:"dir" env:"TL_DB_DIR"`
	Filename       string        `yaml:"filename" env:"TL_DB_FILENAME"`
	Backend        string        `yaml:"backend" env:"TL_DB_BACKEND"`
	QueryTimeout   time.Duration `yaml:"query_timeout" env:"TL_DB_QUERY_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"TL_DB_WRITE_TIMEOUT"`
	DirPermissions uint32        `yaml:"dir_permissions" env:"TL_DB_DIR_PERMISSIONS"`
}

// StorageConfig holds key-value layout configuration
type StorageConfig struct {
	Key string `yaml:"key" env:"TL_STORAGE_KEY"`
}

// ValidationConfig holds optional length limits. Zero means no limit.
type ValidationConfig struct {
	TaskNameMaxLength    int `yaml:"task_name_max_length" env:"TL_VALIDATION_TASK_NAME_MAX"`
	DescriptionMaxLength int `yaml:"description_max_length" env:"TL_VALIDATION_DESCRIPTION_MAX"`
}

// MediaConfig holds photo acquisition configuration
type MediaConfig struct {
	CameraEnabled bool   `yaml:"camera_enabled" env:"TL_CAMERA_ENABLED"`
	CaptureDir    string `yaml:"capture_dir" env:"TL_CAMERA_DIR"`
	LibraryDir    string `yaml:"library_dir" env:"TL_PHOTO_DIR"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TL_APP_TIMEOUT"`
	Verbose bool          `yaml:"verbose" env:"TL_APP_VERBOSE"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"TL_LOG_LEVEL"`
	Format string `yaml:"format" env:"TL_LOG_FORMAT"`
}

// ServerConfig holds HTTP surface configuration
type ServerConfig struct {
	Addr string `yaml:"addr" env:"TL_SERVER_ADDR"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDir := filepath.Join(homeDir, ".tl")

	return &Config{
		Database: DatabaseConfig{
			Dir:            defaultDir,
			Filename:       "tl.db",
			Backend:        BackendSQLite,
			QueryTimeout:   10 * time.Second,
			WriteTimeout:   5 * time.Second,
			DirPermissions: 0755,
		},
		Storage: StorageConfig{
			Key: DefaultStorageKey,
		},
		Validation: ValidationConfig{
			TaskNameMaxLength:    0,
			DescriptionMaxLength: 0,
		},
		Media: MediaConfig{
			CameraEnabled: true,
			CaptureDir:    filepath.Join(defaultDir, "camera"),
			LibraryDir:    filepath.Join(defaultDir, "photos"),
		},
		Application: ApplicationConfig{
			Timeout: 60 * time.Second,
			Verbose: false,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if dir := os.Getenv("TL_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("TL_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if backend := os.Getenv("TL_DB_BACKEND"); backend != "" {
		c.Database.Backend = backend
	}
	if timeout := os.Getenv("TL_DB_QUERY_TIMEOUT"); timeout != "" {
		c.Database.QueryTimeout = ParseDurationWithFallback(timeout, c.Database.QueryTimeout)
	}
	if timeout := os.Getenv("TL_DB_WRITE_TIMEOUT"); timeout != "" {
		c.Database.WriteTimeout = ParseDurationWithFallback(timeout, c.Database.WriteTimeout)
	}
	if perms := os.Getenv("TL_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}

	if key := os.Getenv("TL_STORAGE_KEY"); key != "" {
		c.Storage.Key = key
	}

	// Validation configuration
	if maxLen := os.Getenv("TL_VALIDATION_TASK_NAME_MAX"); maxLen != "" {
		c.Validation.TaskNameMaxLength = ParseIntWithFallback(maxLen, c.Validation.TaskNameMaxLength)
	}
	if maxLen := os.Getenv("TL_VALIDATION_DESCRIPTION_MAX"); maxLen != "" {
		c.Validation.DescriptionMaxLength = ParseIntWithFallback(maxLen, c.Validation.DescriptionMaxLength)
	}

	// Media configuration
	if enabled := os.Getenv("TL_CAMERA_ENABLED"); enabled != "" {
		c.Media.CameraEnabled = ParseBoolWithFallback(enabled, c.Media.CameraEnabled)
	}
	if dir := os.Getenv("TL_CAMERA_DIR"); dir != "" {
		c.Media.CaptureDir = dir
	}
	if dir := os.Getenv("TL_PHOTO_DIR"); dir != "" {
		c.Media.LibraryDir = dir
	}

	// Application configuration
	if timeout := os.Getenv("TL_APP_TIMEOUT"); timeout != "" {
		c.Application.Timeout = ParseDurationWithFallback(timeout, c.Application.Timeout)
	}
	if verbose := os.Getenv("TL_APP_VERBOSE"); verbose != "" {
		c.Application.Verbose = ParseBoolWithFallback(verbose, c.Application.Verbose)
	}

	// Logging configuration
	if level := os.Getenv("TL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("TL_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	if addr := os.Getenv("TL_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	// Validate database configuration
	switch c.Database.Backend {
	case BackendSQLite:
		if c.Database.Dir == "" {
			return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
		}
		if c.Database.Filename == "" {
			return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
		}
	case BackendMemory:
	default:
		return &ConfigError{Field: "database.backend", Message: "backend must be one of: " + BackendSQLite + ", " + BackendMemory}
	}
	if c.Database.QueryTimeout <= 0 {
		return &ConfigError{Field: "database.query_timeout", Message: "query timeout must be positive"}
	}
	if c.Database.WriteTimeout <= 0 {
		return &ConfigError{Field: "database.write_timeout", Message: "write timeout must be positive"}
	}

	if c.Storage.Key == "" {
		return &ConfigError{Field: "storage.key", Message: "storage key cannot be empty"}
	}

	// Validate validation configuration
	if c.Validation.TaskNameMaxLength < 0 {
		return &ConfigError{Field: "validation.task_name_max_length", Message: "task name maximum length cannot be negative"}
	}
	if c.Validation.DescriptionMaxLength < 0 {
		return &ConfigError{Field: "validation.description_max_length", Message: "description maximum length cannot be negative"}
	}

	if c.Media.LibraryDir == "" {
		return &ConfigError{Field: "media.library_dir", Message: "photo library directory cannot be empty"}
	}

	// Validate application configuration
	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must be positive"}
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "log format must be console or json"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
