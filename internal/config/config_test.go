package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "tl.db", cfg.Database.Filename)
	assert.Equal(t, BackendSQLite, cfg.Database.Backend)
	assert.Equal(t, DefaultStorageKey, cfg.Storage.Key)
	assert.Zero(t, cfg.Validation.TaskNameMaxLength, "name length is unlimited by default")
	assert.Zero(t, cfg.Validation.DescriptionMaxLength, "description length is unlimited by default")
	assert.True(t, cfg.Media.CameraEnabled)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestGetDatabasePath(t *testing.T) {
	cfg := NewConfig()
	cfg.Database.Dir = "/var/lib/tl"
	cfg.Database.Filename = "tasks.db"

	assert.Equal(t, filepath.Join("/var/lib/tl", "tasks.db"), cfg.GetDatabasePath())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TL_DB_DIR", "/tmp/tl")
	t.Setenv("TL_DB_FILENAME", "custom.db")
	t.Setenv("TL_DB_BACKEND", "memory")
	t.Setenv("TL_DB_QUERY_TIMEOUT", "3s")
	t.Setenv("TL_DB_WRITE_TIMEOUT", "not-a-duration")
	t.Setenv("TL_DB_DIR_PERMISSIONS", "700")
	t.Setenv("TL_STORAGE_KEY", "tasks-test")
	t.Setenv("TL_VALIDATION_TASK_NAME_MAX", "40")
	t.Setenv("TL_CAMERA_ENABLED", "false")
	t.Setenv("TL_PHOTO_DIR", "/tmp/tl/photos")
	t.Setenv("TL_APP_VERBOSE", "true")
	t.Setenv("TL_LOG_FORMAT", "json")
	t.Setenv("TL_SERVER_ADDR", ":9090")

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnvironment())

	assert.Equal(t, "/tmp/tl", cfg.Database.Dir)
	assert.Equal(t, "custom.db", cfg.Database.Filename)
	assert.Equal(t, BackendMemory, cfg.Database.Backend)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 5*time.Second, cfg.Database.WriteTimeout, "unparseable values keep the default")
	assert.Equal(t, uint32(0700), cfg.Database.DirPermissions)
	assert.Equal(t, "tasks-test", cfg.Storage.Key)
	assert.Equal(t, 40, cfg.Validation.TaskNameMaxLength)
	assert.False(t, cfg.Media.CameraEnabled)
	assert.Equal(t, "/tmp/tl/photos", cfg.Media.LibraryDir)
	assert.True(t, cfg.Application.Verbose)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "memory backend ignores dir", mutate: func(c *Config) {
			c.Database.Backend = BackendMemory
			c.Database.Dir = ""
		}},
		{name: "empty dir", mutate: func(c *Config) { c.Database.Dir = "" }, wantField: "database.dir"},
		{name: "empty filename", mutate: func(c *Config) { c.Database.Filename = "" }, wantField: "database.filename"},
		{name: "unknown backend", mutate: func(c *Config) { c.Database.Backend = "redis" }, wantField: "database.backend"},
		{name: "zero query timeout", mutate: func(c *Config) { c.Database.QueryTimeout = 0 }, wantField: "database.query_timeout"},
		{name: "zero write timeout", mutate: func(c *Config) { c.Database.WriteTimeout = 0 }, wantField: "database.write_timeout"},
		{name: "empty storage key", mutate: func(c *Config) { c.Storage.Key = "" }, wantField: "storage.key"},
		{name: "negative name max", mutate: func(c *Config) { c.Validation.TaskNameMaxLength = -1 }, wantField: "validation.task_name_max_length"},
		{name: "negative description max", mutate: func(c *Config) { c.Validation.DescriptionMaxLength = -1 }, wantField: "validation.description_max_length"},
		{name: "empty library dir", mutate: func(c *Config) { c.Media.LibraryDir = "" }, wantField: "media.library_dir"},
		{name: "zero app timeout", mutate: func(c *Config) { c.Application.Timeout = 0 }, wantField: "application.timeout"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantField: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tl.yaml")
	content := `
database:
  backend: memory
  write_timeout: 2s
storage:
  key: from-file
validation:
  task_name_max_length: 80
media:
  camera_enabled: false
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, BackendMemory, cfg.Database.Backend)
	assert.Equal(t, 2*time.Second, cfg.Database.WriteTimeout)
	assert.Equal(t, "tl.db", cfg.Database.Filename, "keys absent from the file keep their defaults")
	assert.Equal(t, "from-file", cfg.Storage.Key)
	assert.Equal(t, 80, cfg.Validation.TaskNameMaxLength)
	assert.False(t, cfg.Media.CameraEnabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_Errors(t *testing.T) {
	cfg := NewConfig()

	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "does not exist")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("database: [unclosed"), 0644))
	err = cfg.LoadFromFile(bad)
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "invalid YAML")
}
