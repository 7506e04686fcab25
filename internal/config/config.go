// Package config loads the metricstd YAML configuration.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/retry"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "metricstd.yaml"

// Config represents the metricstd configuration file.
type Config struct {
	Version  string         `yaml:"version"`
	Scan     ScanConfig     `yaml:"scan"`
	Registry RegistryConfig `yaml:"registry"`
	Report   ReportConfig   `yaml:"report"`
	History  HistoryConfig  `yaml:"history"`
	Notify   NotifyConfig   `yaml:"notify"`
	Watch    WatchConfig    `yaml:"watch"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ScanConfig controls the consistency scan.
type ScanConfig struct {
	Root       string   `yaml:"root"`       // Directory to scan when none is given on the command line
	RulesFile  string   `yaml:"rules_file"` // Replaces the built-in rule table
	SkipDirs   []string `yaml:"skip_dirs"`  // Added to the rule table's skip list
	Extensions []string `yaml:"extensions"` // Added to the rule table's extensions
}

// RegistryConfig controls which definitions the registry starts with.
type RegistryConfig struct {
	Seed  *bool    `yaml:"seed"`  // Register the built-in definitions (default true)
	Files []string `yaml:"files"` // Export documents imported at startup
}

// SeedEnabled reports whether the built-in definitions should be registered.
func (r RegistryConfig) SeedEnabled() bool {
	return r.Seed == nil || *r.Seed
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Format consistency.OutputFormat `yaml:"format"`
	Output string                   `yaml:"output"` // Empty writes to stdout
}

// HistoryConfig controls the SQLite report history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig controls report publishing to NATS.
type NotifyConfig struct {
	NATSURL string        `yaml:"nats_url"` // Empty disables publishing
	Subject string        `yaml:"subject"`
	Timeout time.Duration `yaml:"timeout"`

	Retries    int               `yaml:"retries"` // Extra attempts after a failed publish
	Backoff    retry.BackoffMode `yaml:"backoff"`
	RetryDelay time.Duration     `yaml:"retry_delay"`
}

// RetryPolicy returns the publish retry policy.
func (n NotifyConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(n.Backoff, n.RetryDelay, 10*n.RetryDelay, n.Retries)
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce"`
	Interval    time.Duration `yaml:"interval"`     // Periodic re-check; zero disables
	MetricsAddr string        `yaml:"metrics_addr"` // Serve /metrics while watching; empty disables
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"` // node-exporter textfile written after each run
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads a configuration file. Environment variables from .env files next
// to the configuration are loaded first and ${VAR} references are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).UserAction().Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	return Parse(data)
}

// LoadOrDefault loads configPath, or DefaultFile when configPath is empty. A
// missing DefaultFile yields the defaults; a missing explicit path is an error.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath != "" {
		return Load(configPath)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	loadEnvFiles(".")
	return Default(), nil
}

// Parse decodes, normalizes, defaults and validates configuration YAML.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}

	if cfg.Version != "" && cfg.Version != "1" && cfg.Version != "1.0" {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).WithContext("expected", "1").Build()
	}

	res := Normalize(&cfg)
	for _, w := range res.Warnings {
		warnf("config normalization: %s", w)
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Rules builds the scan rule table: the rules file when set, otherwise the
// built-in table, extended with the configured skip dirs and extensions.
func (s ScanConfig) Rules() (*consistency.Rules, error) {
	var (
		rules *consistency.Rules
		err   error
	)
	if s.RulesFile != "" {
		rules, err = consistency.LoadRules(s.RulesFile)
	} else {
		rules, err = consistency.DefaultRules()
	}
	if err != nil {
		return nil, err
	}
	return rules.Extend(s.SkipDirs, s.Extensions), nil
}
