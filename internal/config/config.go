// Package config loads the arcsolve configuration: a base TOML file, an
// optional environment overlay, then ARCSOLVE_* environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/arcsolve/internal/batch"
	"github.com/JaimeStill/arcsolve/internal/llm"
	"github.com/JaimeStill/arcsolve/pkg/database"
	"github.com/JaimeStill/arcsolve/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvArcsolveEnv             = "ARCSOLVE_ENV"
	EnvArcsolveLogLevel        = "ARCSOLVE_LOG_LEVEL"
	EnvArcsolveShutdownTimeout = "ARCSOLVE_SHUTDOWN_TIMEOUT"
	EnvArcsolveVersion         = "ARCSOLVE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ARCSOLVE_DB_HOST",
	Port:            "ARCSOLVE_DB_PORT",
	Name:            "ARCSOLVE_DB_NAME",
	User:            "ARCSOLVE_DB_USER",
	Password:        "ARCSOLVE_DB_PASSWORD",
	SSLMode:         "ARCSOLVE_DB_SSL_MODE",
	MaxOpenConns:    "ARCSOLVE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ARCSOLVE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ARCSOLVE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ARCSOLVE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "ARCSOLVE_STORAGE_PROVIDER",
	Path:             "ARCSOLVE_STORAGE_PATH",
	ContainerName:    "ARCSOLVE_STORAGE_CONTAINER_NAME",
	ConnectionString: "ARCSOLVE_STORAGE_CONNECTION_STRING",
	ServiceURL:       "ARCSOLVE_STORAGE_SERVICE_URL",
	MaxListSize:      "ARCSOLVE_STORAGE_MAX_LIST_SIZE",
}

var llmEnv = &llm.Env{
	Provider:   "ARCSOLVE_LLM_PROVIDER",
	BaseURL:    "ARCSOLVE_LLM_BASE_URL",
	Token:      "ARCSOLVE_LLM_TOKEN",
	Model:      "ARCSOLVE_LLM_MODEL",
	APIVersion: "ARCSOLVE_LLM_API_VERSION",
	MaxRetries: "ARCSOLVE_LLM_MAX_RETRIES",
	Timeout:    "ARCSOLVE_LLM_TIMEOUT",
	Backoff:    "ARCSOLVE_LLM_BACKOFF",
}

var batchEnv = &batch.Env{
	BatchSize: "ARCSOLVE_BATCH_SIZE",
	Workers:   "ARCSOLVE_BATCH_WORKERS",
	Sleep:     "ARCSOLVE_BATCH_SLEEP",
	Cycles:    "ARCSOLVE_BATCH_CYCLES",
}

// Config is the root configuration shared by the server and the CLI.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	LLM             llm.Config      `toml:"llm"`
	Solver          SolverConfig    `toml:"solver"`
	Batch           batch.Config    `toml:"batch"`
	Tasks           TasksConfig     `toml:"tasks"`
	LogLevel        string          `toml:"log_level"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the ARCSOLVE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvArcsolveEnv); env != "" {
		return env
	}
	return "local"
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from the working directory.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile reads the base config at path (if present), merges the
// config.<env>.toml overlay beside it when ARCSOLVE_ENV selects one, and
// finalizes all values. Without a base file, defaults and environment
// variables provide the whole configuration.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.LLM.Merge(&overlay.LLM)
	c.Solver.Merge(&overlay.Solver)
	c.Batch.Merge(&overlay.Batch)
	c.Tasks.Merge(&overlay.Tasks)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"server", func() error { return c.Server.Finalize(serverEnv) }},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", func() error { return c.API.Finalize(apiEnv) }},
		{"llm", func() error { return c.LLM.Finalize(llmEnv) }},
		{"solver", func() error { return c.Solver.Finalize(solverEnv) }},
		{"batch", func() error { return c.Batch.Finalize(batchEnv) }},
		{"tasks", func() error { return c.Tasks.Finalize(tasksEnv) }},
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvArcsolveLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvArcsolveShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvArcsolveVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvArcsolveEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
