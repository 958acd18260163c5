// Package config provides layered configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/probekit/backendcheck/internal/hostutil"
)

// Defaults for the backend under test.
const (
	DefaultBaseURL       = "https://german-write.preview.emergentagent.com"
	DefaultAPIPrefix     = "/api"
	DefaultEnvFile       = "/app/frontend/.env"
	DefaultEnvKey        = "EXPO_PUBLIC_BACKEND_URL"
	DefaultServerSource  = "/app/backend/server.py"
	DefaultTimeout       = 10 * time.Second
	DefaultHealthTimeout = 5 * time.Second
	DefaultHistoryLimit  = 20
)

// Config holds the resolved configuration.
type Config struct {
	// Target settings
	BaseURL   string `json:"base_url"`
	APIPrefix string `json:"api_prefix"`

	// Where the base URL is looked up
	EnvFile string `json:"env_file"`
	EnvKey  string `json:"env_key"`

	// Source file scanned by the structure check
	ServerSource string `json:"server_source"`

	// Request timeouts
	Timeout       time.Duration `json:"timeout"`
	HealthTimeout time.Duration `json:"health_timeout"`

	// Run history
	HistoryDir     string `json:"history_dir"`
	HistoryEnabled bool   `json:"history_enabled"`
	HistoryLimit   int    `json:"history_limit"`

	// Output settings
	Format string `json:"format"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global"
	SourceFile    Source = "file"
	SourceEnvFile Source = "env_file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	ConfigFile   string
	BaseURL      string
	EnvFile      string
	ServerSource string
	Timeout      time.Duration
	Format       string
	NoHistory    bool
}

// fileConfig is the YAML shape of a config file. Durations are strings
// ("10s") so a bad value can be reported per key.
type fileConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIPrefix     string `yaml:"api_prefix"`
	EnvFile       string `yaml:"env_file"`
	EnvKey        string `yaml:"env_key"`
	ServerSource  string `yaml:"server_source"`
	Timeout       string `yaml:"timeout"`
	HealthTimeout string `yaml:"health_timeout"`
	HistoryDir    string `yaml:"history_dir"`
	History       *bool  `yaml:"history"`
	HistoryLimit  *int   `yaml:"history_limit"`
	Format        string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		APIPrefix:      DefaultAPIPrefix,
		EnvFile:        DefaultEnvFile,
		EnvKey:         DefaultEnvKey,
		ServerSource:   DefaultServerSource,
		Timeout:        DefaultTimeout,
		HealthTimeout:  DefaultHealthTimeout,
		HistoryDir:     defaultHistoryDir(),
		HistoryEnabled: true,
		HistoryLimit:   DefaultHistoryLimit,
		Format:         "auto",
		Sources:        make(map[string]string),
	}
}

// Load resolves configuration from all sources with proper precedence.
// Precedence: flags > env > .env lookup > --config file > global file > defaults
//
// The .env lookup only ever supplies base_url. It runs after every other layer
// has had a chance to move env_file or env_key, and an explicit base URL from
// the environment or a flag still wins over it.
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, globalConfigPath(), SourceGlobal)
	if overrides.ConfigFile != "" {
		if _, err := os.Stat(overrides.ConfigFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", overrides.ConfigFile, err)
		}
		loadFromFile(cfg, overrides.ConfigFile, SourceFile)
	}

	// env_file may itself be moved by env or flag before it is read
	if v := os.Getenv("BACKENDCHECK_ENV_FILE"); v != "" {
		cfg.EnvFile = v
		cfg.Sources["env_file"] = string(SourceEnv)
	}
	if overrides.EnvFile != "" {
		cfg.EnvFile = overrides.EnvFile
		cfg.Sources["env_file"] = string(SourceFlag)
	}
	LoadFromEnvFile(cfg)

	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's own config
	if err != nil {
		return // File doesn't exist, skip
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	set := func(key string, dst *string, v string) {
		if v != "" {
			*dst = v
			cfg.Sources[key] = string(source)
		}
	}
	setBaseURL(cfg, fc.BaseURL, source)
	set("api_prefix", &cfg.APIPrefix, fc.APIPrefix)
	set("env_file", &cfg.EnvFile, fc.EnvFile)
	set("env_key", &cfg.EnvKey, fc.EnvKey)
	set("server_source", &cfg.ServerSource, fc.ServerSource)
	set("history_dir", &cfg.HistoryDir, fc.HistoryDir)
	set("format", &cfg.Format, fc.Format)

	if d, ok := parseDuration(fc.Timeout, "timeout", path); ok {
		cfg.Timeout = d
		cfg.Sources["timeout"] = string(source)
	}
	if d, ok := parseDuration(fc.HealthTimeout, "health_timeout", path); ok {
		cfg.HealthTimeout = d
		cfg.Sources["health_timeout"] = string(source)
	}
	if fc.History != nil {
		cfg.HistoryEnabled = *fc.History
		cfg.Sources["history_enabled"] = string(source)
	}
	if fc.HistoryLimit != nil && *fc.HistoryLimit > 0 {
		cfg.HistoryLimit = *fc.HistoryLimit
		cfg.Sources["history_limit"] = string(source)
	}
}

// parseDuration parses a positive duration, warning on stderr for bad values.
func parseDuration(v, key, path string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		fmt.Fprintf(os.Stderr, "warning: ignoring %s %q in %s\n", key, v, path)
		return 0, false
	}
	return d, true
}

// LoadFromEnvFile looks up EnvKey in EnvFile and, when present and non-empty,
// uses it as the base URL. Any failure leaves the current base URL in place.
func LoadFromEnvFile(cfg *Config) {
	v, err := LookupEnvFile(cfg.EnvFile, cfg.EnvKey)
	if err != nil {
		return
	}
	setBaseURL(cfg, v, SourceEnvFile)
}

// setBaseURL normalizes raw and applies it unless nothing is left, so a blank
// or quoted-empty value keeps the previous base URL.
func setBaseURL(cfg *Config, raw string, source Source) {
	v := hostutil.Normalize(raw)
	if v == "" {
		return
	}
	cfg.BaseURL = v
	cfg.Sources["base_url"] = string(source)
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	setBaseURL(cfg, os.Getenv("BACKENDCHECK_BASE_URL"), SourceEnv)
	if v := os.Getenv("BACKENDCHECK_API_PREFIX"); v != "" {
		cfg.APIPrefix = v
		cfg.Sources["api_prefix"] = string(SourceEnv)
	}
	if v := os.Getenv("BACKENDCHECK_SERVER_SOURCE"); v != "" {
		cfg.ServerSource = v
		cfg.Sources["server_source"] = string(SourceEnv)
	}
	if v := os.Getenv("BACKENDCHECK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
			cfg.Sources["timeout"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("BACKENDCHECK_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.HistoryEnabled = b
			cfg.Sources["history_enabled"] = string(SourceEnv)
		}
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	setBaseURL(cfg, o.BaseURL, SourceFlag)
	if o.EnvFile != "" {
		cfg.EnvFile = o.EnvFile
		cfg.Sources["env_file"] = string(SourceFlag)
	}
	if o.ServerSource != "" {
		cfg.ServerSource = o.ServerSource
		cfg.Sources["server_source"] = string(SourceFlag)
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
		cfg.Sources["timeout"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
	if o.NoHistory {
		cfg.HistoryEnabled = false
		cfg.Sources["history_enabled"] = string(SourceFlag)
	}
}

// SourceOf returns where key came from, "default" if never overridden.
func (cfg *Config) SourceOf(key string) string {
	if s, ok := cfg.Sources[key]; ok {
		return s
	}
	return string(SourceDefault)
}

// Path helpers

func globalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "backendcheck")
}

func defaultHistoryDir() string {
	if cacheDir := os.Getenv("XDG_CACHE_HOME"); cacheDir != "" {
		return filepath.Join(cacheDir, "backendcheck", "history")
	}
	if cacheDir, err := os.UserCacheDir(); err == nil && cacheDir != "" {
		return filepath.Join(cacheDir, "backendcheck", "history")
	}
	return filepath.Join(os.TempDir(), "backendcheck", "history")
}
