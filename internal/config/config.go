// ABOUTME: Configuration loading and parsing for finch-store
// ABOUTME: Supports YAML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/robfig/cron/v3"
)

// Config represents the complete finch-store configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Telephony TelephonyConfig `yaml:"telephony"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DatabaseConfig holds local conversation database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TelephonyConfig holds telephony provider store configuration
type TelephonyConfig struct {
	Path string `yaml:"path"`
}

// RetentionConfig holds deletion retention configuration.
// DefaultDays is the retention period used when no preference has been
// stored yet; the live value is a store preference, not a config field,
// so it survives restarts and can be changed at runtime. A pointer
// distinguishes "not set" from an explicit 0 (purge immediately).
type RetentionConfig struct {
	DefaultDays *int   `yaml:"default_days"`
	Schedule    string `yaml:"schedule"`
	SweepOnBoot *bool  `yaml:"sweep_on_boot"`
}

// ResolvedDefaultDays returns the configured default retention period, or
// 14 days when the config file doesn't set one.
func (r RetentionConfig) ResolvedDefaultDays() int {
	if r.DefaultDays == nil {
		return 14
	}
	return *r.DefaultDays
}

// ResolvedSweepOnBoot reports whether the daemon should run a sweep at
// startup. Defaults to true so conversations that expired while the
// daemon was down are purged promptly.
func (r RetentionConfig) ResolvedSweepOnBoot() bool {
	if r.SweepOnBoot == nil {
		return true
	}
	return *r.SweepOnBoot
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in defaults for optional fields
func (c *Config) applyDefaults() {
	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "0 3 * * *"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "127.0.0.1:9090"
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Telephony.Path == "" {
		return fmt.Errorf("telephony.path is required")
	}

	// -1 disables auto purge entirely; anything lower is a typo
	if c.Retention.DefaultDays != nil && *c.Retention.DefaultDays < -1 {
		return fmt.Errorf("retention.default_days must be >= -1, got %d", *c.Retention.DefaultDays)
	}

	if c.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
			return fmt.Errorf("retention.schedule is not a valid cron expression: %w", err)
		}
	}

	return nil
}
