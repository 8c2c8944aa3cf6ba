// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./conversations.db"

telephony:
  path: "./telephony.db"

retention:
  default_days: 30
  schedule: "0 4 * * *"
  sweep_on_boot: true

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  addr: "0.0.0.0:9090"
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "./conversations.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./conversations.db")
	}
	if cfg.Telephony.Path != "./telephony.db" {
		t.Errorf("Telephony.Path = %q, want %q", cfg.Telephony.Path, "./telephony.db")
	}
	if got := cfg.Retention.ResolvedDefaultDays(); got != 30 {
		t.Errorf("Retention.ResolvedDefaultDays() = %d, want 30", got)
	}
	if cfg.Retention.Schedule != "0 4 * * *" {
		t.Errorf("Retention.Schedule = %q, want %q", cfg.Retention.Schedule, "0 4 * * *")
	}
	if !cfg.Retention.ResolvedSweepOnBoot() {
		t.Error("Retention.ResolvedSweepOnBoot() = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Addr != "0.0.0.0:9090" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, "0.0.0.0:9090")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./conversations.db"
telephony:
  path: "./telephony.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Retention.ResolvedDefaultDays(); got != 14 {
		t.Errorf("Retention.ResolvedDefaultDays() = %d, want 14", got)
	}
	if cfg.Retention.Schedule != "0 3 * * *" {
		t.Errorf("Retention.Schedule = %q, want %q", cfg.Retention.Schedule, "0 3 * * *")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
	if cfg.Metrics.Addr != "127.0.0.1:9090" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, "127.0.0.1:9090")
	}
	if !cfg.Retention.ResolvedSweepOnBoot() {
		t.Error("ResolvedSweepOnBoot() = false, want true by default")
	}
}

func TestLoad_SweepOnBootDisabled(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./conversations.db"
telephony:
  path: "./telephony.db"
retention:
  sweep_on_boot: false
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Retention.ResolvedSweepOnBoot() {
		t.Error("ResolvedSweepOnBoot() = true, want false when explicitly disabled")
	}
}

func TestLoad_ZeroRetentionIsPreserved(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./conversations.db"
telephony:
  path: "./telephony.db"
retention:
  default_days: 0
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// An explicit 0 means immediate purge, not "use the default"
	if got := cfg.Retention.ResolvedDefaultDays(); got != 0 {
		t.Errorf("Retention.ResolvedDefaultDays() = %d, want 0", got)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("FINCH_TEST_DB_PATH", "/var/lib/finch/conversations.db")

	configPath := writeConfig(t, `
database:
  path: "${FINCH_TEST_DB_PATH}"
telephony:
  path: "./telephony.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/var/lib/finch/conversations.db" {
		t.Errorf("Database.Path = %q, want expanded env var", cfg.Database.Path)
	}
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	configPath := writeConfig(t, `
telephony:
  path: "./telephony.db"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing database.path")
	}
	if !strings.Contains(err.Error(), "database.path") {
		t.Errorf("error = %v, want mention of database.path", err)
	}
}

func TestLoad_MissingTelephonyPath(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./conversations.db"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing telephony.path")
	}
	if !strings.Contains(err.Error(), "telephony.path") {
		t.Errorf("error = %v, want mention of telephony.path", err)
	}
}

func TestLoad_InvalidSchedule(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./conversations.db"
telephony:
  path: "./telephony.db"
retention:
  schedule: "every day at noon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid cron schedule")
	}
	if !strings.Contains(err.Error(), "retention.schedule") {
		t.Errorf("error = %v, want mention of retention.schedule", err)
	}
}

func TestLoad_RetentionBelowDisabled(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./conversations.db"
telephony:
  path: "./telephony.db"
retention:
  default_days: -5
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for default_days < -1")
	}
}

func TestLoad_NonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for nonexistent file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: [this is not
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for malformed YAML")
	}
}
