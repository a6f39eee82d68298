package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is read from a YAML file under the user's home directory.
// All fields are optional; defaults are applied by the accessor methods.
//
// Example (~/.playground/config.yaml):
//
// server:
//   host: 127.0.0.1
//   port: 8090
// database:
//   path: ~/.playground/playground.db
// providers:
//   - name: openai
//     api_key: sk-...
//     models: [gpt-4o, gpt-4o-mini]
// rate_limit:
//   requests_per_minute: 10
//
// Notes:
// - If the config file does not exist, Load returns defaults without error.
// - If the config file exists but cannot be parsed, Load returns an error.
// - Port must be between 1 and 65535.

type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Providers  []ProviderConfig `yaml:"providers"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Auth       AuthConfig       `yaml:"auth"`
	Generation GenerationConfig `yaml:"generation"`
}

type ServerConfig struct {
	Host *string `yaml:"host"`
	Port *int    `yaml:"port"`
}

type DatabaseConfig struct {
	// Path is the sqlite database file. Defaults to <config dir>/playground.db.
	Path string `yaml:"path"`
}

// ProviderConfig describes one upstream model provider and the models from it
// that generation requests are allowed to name.
type ProviderConfig struct {
	Name    string   `yaml:"name"` // openai, anthropic, deepseek, custom
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Models  []string `yaml:"models"`
}

type RateLimitConfig struct {
	// RequestsPerMinute caps generation requests per user. 0 disables limiting.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	// RedisAddr enables the shared (multi-instance) limiter when set.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
}

type AuthConfig struct {
	// Tokens maps bearer tokens to user ids. Empty means auth is disabled
	// and every request runs as the "dev" user.
	Tokens map[string]string `yaml:"tokens"`
}

type GenerationConfig struct {
	// TimeoutSeconds bounds a single generation end to end. 0 uses the default.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 8090
	DefaultGenerationTimeout = 5 * time.Minute
)

// DefaultPaths returns the config dir and config file path.
func DefaultPaths() (configDir string, configFile string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("get user home dir: %w", err)
	}
	configDir = filepath.Join(home, ".playground")
	configFile = filepath.Join(configDir, "config.yaml")
	return configDir, configFile, nil
}

// Load reads ~/.playground/config.yaml.
// If the file doesn't exist, it returns a default config and nil error.
func Load() (*AppConfig, string, error) {
	_, configFile, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	cfg := &AppConfig{}

	b, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, configFile, nil
		}
		return nil, "", fmt.Errorf("read config file %s: %w", configFile, err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, "", fmt.Errorf("parse yaml config %s: %w", configFile, err)
	}

	// Validate
	host := cfg.Host()
	if strings.TrimSpace(host) == "" {
		return nil, "", fmt.Errorf("invalid server.host (empty) in %s", configFile)
	}

	port := cfg.Port()
	if port < 1 || port > 65535 {
		return nil, "", fmt.Errorf("invalid server.port %d in %s", port, configFile)
	}

	for i, p := range cfg.Providers {
		if strings.TrimSpace(p.Name) == "" {
			return nil, "", fmt.Errorf("providers[%d].name is empty in %s", i, configFile)
		}
	}

	return cfg, configFile, nil
}

// EnsureDefaultConfig writes a default config file if it doesn't already exist.
// It is safe to call on startup.
func EnsureDefaultConfig() (string, error) {
	configDir, configFile, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configFile); err == nil {
		return configFile, nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", configDir, err)
	}

	defaultCfg := AppConfig{Server: ServerConfig{Host: ptr(DefaultHost), Port: ptr(DefaultPort)}}
	b, err := yaml.Marshal(&defaultCfg)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	// Write with restrictive permissions: provider API keys live in here.
	if err := os.WriteFile(configFile, b, 0o600); err != nil {
		return "", fmt.Errorf("write default config file %s: %w", configFile, err)
	}

	return configFile, nil
}

func (c *AppConfig) Host() string {
	if c == nil || c.Server.Host == nil {
		return DefaultHost
	}
	v := strings.TrimSpace(*c.Server.Host)
	if v == "" {
		return DefaultHost
	}
	return v
}

func (c *AppConfig) Port() int {
	if c == nil || c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

// DatabasePath returns the sqlite file path, defaulting under the config dir.
func (c *AppConfig) DatabasePath() (string, error) {
	if c != nil && strings.TrimSpace(c.Database.Path) != "" {
		return c.Database.Path, nil
	}
	configDir, _, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "playground.db"), nil
}

// GenerationTimeout returns the configured generation deadline.
func (c *AppConfig) GenerationTimeout() time.Duration {
	if c == nil || c.Generation.TimeoutSeconds <= 0 {
		return DefaultGenerationTimeout
	}
	return time.Duration(c.Generation.TimeoutSeconds) * time.Second
}

func ptr[T any](v T) *T { return &v }
