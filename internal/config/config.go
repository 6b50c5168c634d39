package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the configuration leaves a field unset.
const (
	DefaultTimeout          = 20 * time.Minute
	DefaultMinBatchesToTest = 10
)

// Config is one connector's acceptance test configuration.
type Config struct {
	// Connector describes how to launch the connector under test.
	Connector Connector `yaml:"connector"`

	// Fixtures is a blob bucket URL holding the fixture files.
	// Empty means the directory of the configuration file.
	Fixtures string `yaml:"fixtures,omitempty"`

	// ConfigPath is the fixture key of the connector's config JSON.
	ConfigPath string `yaml:"config_path"`

	// ConfiguredCatalogPath is the fixture key of the configured catalog.
	ConfiguredCatalogPath string `yaml:"configured_catalog_path"`

	// Timeout bounds each scenario, connector invocations included.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Store is the path of the run database. Empty disables recording.
	Store string `yaml:"store,omitempty"`

	// Tests holds per-suite parameters.
	Tests Tests `yaml:"tests"`

	// BaseDir is the directory of the configuration file.
	BaseDir string `yaml:"-"`
}

// Connector is the command line of the connector under test. The runner
// appends the protocol arguments (read --config ... --catalog ...).
type Connector struct {
	Command []string `yaml:"command"`
	EnvFile string   `yaml:"env_file,omitempty"`
	WorkDir string   `yaml:"workdir,omitempty"`
}

// Tests groups suite parameters.
type Tests struct {
	Incremental Incremental `yaml:"incremental"`
}

// Incremental parameterizes the incremental conformance suite.
type Incremental struct {
	// ThresholdDays is the date tolerance for resumed reads.
	ThresholdDays int `yaml:"threshold_days,omitempty"`

	// CursorPaths overrides the path of a stream's cursor inside its state.
	CursorPaths map[string][]string `yaml:"cursor_paths,omitempty"`

	// FutureStatePath is the fixture key of a state far in the future.
	// Empty skips the abnormal state scenario.
	FutureStatePath string `yaml:"future_state_path,omitempty"`

	// SkipComprehensive skips the sequential slices scenario.
	SkipComprehensive bool `yaml:"skip_comprehensive_incremental_tests,omitempty"`

	// MinBatchesToTest is the sampler's coverage floor.
	MinBatchesToTest int `yaml:"min_batches_to_test,omitempty"`
}

// Load reads and validates a configuration file. Unknown fields are
// rejected so typos surface early.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.BaseDir = filepath.Dir(abs)
	if cfg.Connector.EnvFile != "" && !filepath.IsAbs(cfg.Connector.EnvFile) {
		cfg.Connector.EnvFile = filepath.Join(cfg.BaseDir, cfg.Connector.EnvFile)
	}
	if cfg.Connector.WorkDir != "" && !filepath.IsAbs(cfg.Connector.WorkDir) {
		cfg.Connector.WorkDir = filepath.Join(cfg.BaseDir, cfg.Connector.WorkDir)
	}
	if cfg.Store != "" && !filepath.IsAbs(cfg.Store) {
		cfg.Store = filepath.Join(cfg.BaseDir, cfg.Store)
	}
	return cfg, nil
}

// Parse decodes and validates configuration YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Tests.Incremental.MinBatchesToTest == 0 {
		cfg.Tests.Incremental.MinBatchesToTest = DefaultMinBatchesToTest
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if len(c.Connector.Command) == 0 {
		return fmt.Errorf("connector.command is required and must be non-empty")
	}
	for i, arg := range c.Connector.Command {
		if arg == "" {
			return fmt.Errorf("connector.command[%d]: must not be empty", i)
		}
	}
	if c.ConfigPath == "" {
		return fmt.Errorf("config_path is required")
	}
	if c.ConfiguredCatalogPath == "" {
		return fmt.Errorf("configured_catalog_path is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	inc := c.Tests.Incremental
	if inc.ThresholdDays < 0 {
		return fmt.Errorf("tests.incremental.threshold_days must not be negative")
	}
	if inc.MinBatchesToTest < 0 {
		return fmt.Errorf("tests.incremental.min_batches_to_test must not be negative")
	}
	for stream, path := range inc.CursorPaths {
		if len(path) == 0 {
			return fmt.Errorf("tests.incremental.cursor_paths[%s]: path must be non-empty", stream)
		}
	}
	return nil
}

// FixturesURL returns the bucket URL fixtures are read from.
func (c *Config) FixturesURL() string {
	if c.Fixtures != "" {
		return c.Fixtures
	}
	dir := c.BaseDir
	if dir == "" {
		dir = "."
	}
	return "file://" + filepath.ToSlash(dir)
}
