package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hpungsan/vocab/internal/srs"
)

// EnvPrefix is the prefix for environment overrides.
// Nested keys use a double underscore: VOCAB_LLM__MODEL -> llm.model.
const EnvPrefix = "VOCAB_"

// Config holds application configuration.
type Config struct {
	// DatabasePath overrides the SQLite file location.
	// Empty means <base>/vocab.db.
	DatabasePath string `koanf:"database_path"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default. Only set if you see "database is locked".
	DBMaxOpenConns int `koanf:"db_max_open_conns" validate:"min=0"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `koanf:"db_max_idle_conns" validate:"min=0"`

	// SRSIntervals maps a box ("1".."5") to days until the next review.
	// A configured table replaces the default one entirely.
	SRSIntervals map[string]int `koanf:"srs_intervals" validate:"omitempty,dive,keys,oneof=1 2 3 4 5,endkeys,min=1"`

	LLM     LLMConfig     `koanf:"llm"`
	Logging LoggingConfig `koanf:"logging"`
	Web     WebConfig     `koanf:"web"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Lists from every config layer are merged.
	DisabledTools []string `koanf:"disabled_tools"`
}

// LLMConfig configures the local model used for card generation and chat.
type LLMConfig struct {
	Binary  string        `koanf:"binary" validate:"required"`
	Model   string        `koanf:"model" validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// LoggingConfig configures the rotating JSON log file.
type LoggingConfig struct {
	// File is the log path. Empty means <base>/logs/vocab.log.
	File       string `koanf:"file"`
	Level      string `koanf:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"min=1"`
	MaxBackups int    `koanf:"max_backups" validate:"min=0"`
}

// WebConfig configures the `serve` command.
type WebConfig struct {
	Bind string `koanf:"bind" validate:"required"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Binary:  "ollama",
			Model:   "llama3.2:latest",
			Timeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Web: WebConfig{
			Bind: "127.0.0.1",
			Port: 8765,
		},
	}
}

// BaseDir resolves the vocab home directory.
// Precedence: override (--home) > VOCAB_HOME > ~/.vocab.
func BaseDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if v := os.Getenv(EnvPrefix + "HOME"); v != "" {
		return v, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".vocab"), nil
}

// Load loads configuration from baseDir/config.yaml and the environment.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.vocab.
func Load(baseDir string) (*Config, error) {
	return LoadWithRepo(baseDir, "")
}

// LoadWithRepo loads configuration from both global (~/.vocab) and repo (.vocab) directories.
// Repo config is found by walking upward from startDir to find the nearest .vocab/config.yaml.
// Layers, lowest to highest: defaults, global file, repo file, VOCAB_* environment.
// A .env file in baseDir is loaded into the environment first; real env vars win.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(globalDir, ".env")); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	var disabled []string

	paths := []string{filepath.Join(globalDir, "config.yaml")}
	if startDir != "" {
		if repoPath := FindRepoConfig(startDir); repoPath != "" {
			paths = append(paths, repoPath)
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		disabled = append(disabled, k.Strings("disabled_tools")...)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	disabled = append(disabled, k.Strings("disabled_tools")...)

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.DisabledTools = mergeStringSlice(disabled, cfg.DisabledTools)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .vocab/config.yaml.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".vocab", "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Intervals converts SRSIntervals into a scheduler table.
// Returns nil when unset so the scheduler falls back to its defaults.
func (c *Config) Intervals() srs.IntervalTable {
	if len(c.SRSIntervals) == 0 {
		return nil
	}
	table := make(srs.IntervalTable, len(c.SRSIntervals))
	for key, days := range c.SRSIntervals {
		box, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		table[box] = days
	}
	return table
}

// DBPath returns the database file location for baseDir.
func (c *Config) DBPath(baseDir string) string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(baseDir, "vocab.db")
}

// LogPath returns the log file location for baseDir.
func (c *Config) LogPath(baseDir string) string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(baseDir, "logs", "vocab.log")
}

// WebAddr returns the listen address for the web UI.
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Bind, c.Web.Port)
}

// envKey maps VOCAB_LLM__MODEL to llm.model.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// loadDotEnv loads a .env file if present. Existing variables are not overridden.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
