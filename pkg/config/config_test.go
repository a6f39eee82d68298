package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFile_ReturnsDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path == "" {
		t.Fatalf("expected config path")
	}
	if got := cfg.Host(); got != DefaultHost {
		t.Fatalf("cfg.Host() = %q, want %q", got, DefaultHost)
	}
	if got := cfg.Port(); got != DefaultPort {
		t.Fatalf("cfg.Port() = %d, want %d", got, DefaultPort)
	}
	if got := cfg.GenerationTimeout(); got != DefaultGenerationTimeout {
		t.Fatalf("cfg.GenerationTimeout() = %v, want %v", got, DefaultGenerationTimeout)
	}
}

func TestEnsureDefaultConfig_CreatesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := EnsureDefaultConfig()
	if err != nil {
		t.Fatalf("EnsureDefaultConfig() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist at %s: %v", path, err)
	}

	cfg, gotPath, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if filepath.Clean(gotPath) != filepath.Clean(path) {
		t.Fatalf("Load() path = %s, want %s", gotPath, path)
	}
	if got := cfg.Host(); got != DefaultHost {
		t.Fatalf("cfg.Host() = %q, want %q", got, DefaultHost)
	}
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".playground")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	raw := `server:
  host: 0.0.0.0
  port: 9090
database:
  path: /tmp/pg.db
providers:
  - name: openai
    api_key: sk-test
    models: [gpt-4o, gpt-4o-mini]
  - name: anthropic
    api_key: sk-ant
    models: [claude-sonnet-4]
rate_limit:
  requests_per_minute: 5
auth:
  tokens:
    tok-abc: user-1
generation:
  timeout_seconds: 30
`
	if err := os.WriteFile(configPath, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Host(); got != "0.0.0.0" {
		t.Fatalf("cfg.Host() = %q, want %q", got, "0.0.0.0")
	}
	if got := cfg.Port(); got != 9090 {
		t.Fatalf("cfg.Port() = %d, want %d", got, 9090)
	}
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		t.Fatalf("DatabasePath() error = %v", err)
	}
	if dbPath != "/tmp/pg.db" {
		t.Fatalf("DatabasePath() = %q, want %q", dbPath, "/tmp/pg.db")
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("len(Providers) = %d, want 2", len(cfg.Providers))
	}
	if cfg.Providers[0].Models[1] != "gpt-4o-mini" {
		t.Fatalf("Providers[0].Models[1] = %q", cfg.Providers[0].Models[1])
	}
	if cfg.RateLimit.RequestsPerMinute != 5 {
		t.Fatalf("RateLimit.RequestsPerMinute = %d, want 5", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Auth.Tokens["tok-abc"] != "user-1" {
		t.Fatalf("Auth.Tokens[tok-abc] = %q, want user-1", cfg.Auth.Tokens["tok-abc"])
	}
	if got := cfg.GenerationTimeout(); got != 30*time.Second {
		t.Fatalf("GenerationTimeout() = %v, want 30s", got)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".playground")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 70000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for out-of-range port")
	}
}
