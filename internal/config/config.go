// Package config loads meshpanel settings from a YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the file read when no --config flag is given.
const DefaultPath = "meshpanel.yaml"

// Environment overrides, applied after the file.
const (
	EnvAPIURL   = "MESHPANEL_API_URL"
	EnvListen   = "MESHPANEL_LISTEN"
	EnvLogLevel = "MESHPANEL_LOG_LEVEL"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerFile   = "file"
	LedgerRedis  = "redis"
)

// Config holds panel settings.
type Config struct {
	APIURL    string        `yaml:"api_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Listen    string        `yaml:"listen"`
	LogLevel  string        `yaml:"log_level"`
	LogFile   string        `yaml:"log_file"`
	LogsLimit int           `yaml:"logs_limit"`
	Ledger    LedgerConfig  `yaml:"ledger"`
}

// LedgerConfig selects where created nodes are recorded.
type LedgerConfig struct {
	Backend       string `yaml:"backend"` // "memory", "file", "redis"
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Prefix        string `yaml:"prefix"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		APIURL:    "http://localhost:8080",
		Timeout:   10 * time.Second,
		Listen:    ":8090",
		LogLevel:  "info",
		LogsLimit: 100,
		Ledger: LedgerConfig{
			Backend:   LedgerMemory,
			Path:      ".meshpanel/nodes",
			RedisAddr: "localhost:6379",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// Validate checks values the panel cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("config: api_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.LogsLimit < 0 {
		return fmt.Errorf("config: logs_limit must not be negative, got %d", c.LogsLimit)
	}
	switch c.Ledger.Backend {
	case LedgerMemory, LedgerFile, LedgerRedis:
	default:
		return fmt.Errorf("config: unknown ledger backend %q", c.Ledger.Backend)
	}
	return nil
}
