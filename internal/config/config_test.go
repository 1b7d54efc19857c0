package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesTemplateAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("config template not written: %v", err)
	}

	if cfg.Monitor.EvalInterval != time.Minute {
		t.Errorf("EvalInterval = %v, want 1m", cfg.Monitor.EvalInterval)
	}
	if cfg.Monitor.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v, want 30s", cfg.Monitor.RefreshInterval)
	}
	if cfg.Monitor.Timezone != "Asia/Shanghai" {
		t.Errorf("Timezone = %q", cfg.Monitor.Timezone)
	}
	if cfg.Provider.BaseURL == "" {
		t.Error("Provider.BaseURL empty")
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "boduan.db") {
		t.Errorf("DatabasePath = %q", cfg.Storage.DatabasePath)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BODUAN_DB_PATH", "/tmp/override.db")
	t.Setenv("BODUAN_PROVIDER_URL", "http://example.com:9000")
	t.Setenv("BODUAN_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DatabasePath != "/tmp/override.db" {
		t.Errorf("DatabasePath = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Provider.BaseURL != "http://example.com:9000" {
		t.Errorf("BaseURL = %q", cfg.Provider.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:  StorageConfig{DatabasePath: "/tmp/x.db"},
			Monitor:  MonitorConfig{EvalInterval: time.Minute, RefreshInterval: 30 * time.Second, Timezone: "Asia/Shanghai"},
			Provider: ProviderConfig{BaseURL: "http://127.0.0.1:5000", Timeout: 10 * time.Second},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	c := valid()
	c.Storage.DatabasePath = ""
	if err := c.Validate(); err == nil {
		t.Error("empty database path accepted")
	}

	c = valid()
	c.Monitor.EvalInterval = 0
	if err := c.Validate(); err == nil {
		t.Error("zero eval interval accepted")
	}

	c = valid()
	c.Monitor.Timezone = "Not/AZone"
	if err := c.Validate(); err == nil {
		t.Error("bogus timezone accepted")
	}
}
