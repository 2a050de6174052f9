// Package config_test tests configuration loading and validation.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nmoralez/batuchat/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults when config file is missing, got %v", err)
	}

	if cfg.Logger.Level != "info" || !cfg.Logger.JSON {
		t.Errorf("unexpected logger defaults: %+v", cfg.Logger)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected server addr default: %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("unexpected shutdown timeout default: %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Path != "batuchat.db" {
		t.Errorf("unexpected database path default: %q", cfg.Database.Path)
	}
	if cfg.Gemini.MaxRetries != 3 || cfg.Gemini.RetryDelaySeconds != 2 {
		t.Errorf("unexpected gemini defaults: %+v", cfg.Gemini)
	}

	task, ok := cfg.Scheduler.Tasks["maintenance"]
	if !ok || !task.Enabled || task.Schedule == "" {
		t.Errorf("expected default maintenance task, got %+v", cfg.Scheduler.Tasks)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
logger:
  level: debug
  json: false
server:
  addr: ":9090"
database:
  path: /tmp/test.db
gemini:
  api_key: test-key
  model_name: gemini-2.0-flash
scheduler:
  tasks:
    maintenance:
      enabled: false
      schedule: "0 0 3 * * *"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Logger.Level != "debug" || cfg.Logger.JSON {
		t.Errorf("unexpected logger config: %+v", cfg.Logger)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected server addr: %q", cfg.Server.Addr)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("unexpected database path: %q", cfg.Database.Path)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("unexpected gemini key: %q", cfg.Gemini.APIKey)
	}
	if task := cfg.Scheduler.Tasks["maintenance"]; task.Enabled {
		t.Errorf("expected maintenance disabled, got %+v", task)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
logger:
  level: loud
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := config.LoadConfig(path); err == nil {
		t.Error("expected validation error for invalid log level")
	}
}
