// Package config loads the optional embedview.yaml that tunes logging,
// dispatch and metrics for a host process.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "embedview.yaml"

// EnvLog enables diagnostic logging when set to "1" or "true".
const EnvLog = "EMBEDVIEW_LOG"

// Defaults applied by Resolve.
const (
	DefaultVersion      = "v1.0.0"
	DefaultQueueSize    = 1024
	DefaultPumpInterval = 16 * time.Millisecond
	DefaultNamespace    = "embedview"
	DefaultMetricsAddr  = "127.0.0.1:9464"
)

// Config represents the optional embedview.yaml configuration.
type Config struct {
	Version  string         `yaml:"version,omitempty"`
	Logging  LoggingConfig  `yaml:"logging"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	WebView  WebViewConfig  `yaml:"webview"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	Verbose bool `yaml:"verbose,omitempty"`
}

// DispatchConfig tunes the platform thread.
type DispatchConfig struct {
	QueueSize    int    `yaml:"queue_size,omitempty"`
	AsyncBounds  *bool  `yaml:"async_bounds,omitempty"`
	PumpInterval string `yaml:"pump_interval,omitempty"`
}

// WebViewConfig holds per-view defaults.
type WebViewConfig struct {
	UserAgent string `yaml:"user_agent,omitempty"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	Addr      string `yaml:"addr,omitempty"`
}

// Resolved contains configuration values with defaults applied.
type Resolved struct {
	Root    string
	Version string

	LogEnabled bool
	LogVerbose bool

	QueueSize    int
	AsyncBounds  bool
	PumpInterval time.Duration

	UserAgent string

	MetricsEnabled   bool
	MetricsNamespace string
	MetricsAddr      string
}

// LoadOptional reads embedview.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads embedview.yaml (if present), applies defaults and the
// environment override, and validates the result.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = DefaultVersion
	}
	if err := validateVersion(version); err != nil {
		return nil, err
	}

	queueSize := cfg.Dispatch.QueueSize
	if queueSize < 0 {
		return nil, fmt.Errorf("dispatch.queue_size must not be negative, got %d", queueSize)
	}
	if queueSize == 0 {
		queueSize = DefaultQueueSize
	}

	interval := DefaultPumpInterval
	if s := strings.TrimSpace(cfg.Dispatch.PumpInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid dispatch.pump_interval %q: %w", s, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("dispatch.pump_interval must be positive, got %s", d)
		}
		interval = d
	}

	asyncBounds := true
	if cfg.Dispatch.AsyncBounds != nil {
		asyncBounds = *cfg.Dispatch.AsyncBounds
	}

	namespace := strings.TrimSpace(cfg.Metrics.Namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	addr := strings.TrimSpace(cfg.Metrics.Addr)
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	logEnabled := cfg.Logging.Enabled
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLog))) {
	case "1", "true":
		logEnabled = true
	case "0", "false":
		logEnabled = false
	}

	return &Resolved{
		Root:             dir,
		Version:          version,
		LogEnabled:       logEnabled,
		LogVerbose:       cfg.Logging.Verbose,
		QueueSize:        queueSize,
		AsyncBounds:      asyncBounds,
		PumpInterval:     interval,
		UserAgent:        strings.TrimSpace(cfg.WebView.UserAgent),
		MetricsEnabled:   cfg.Metrics.Enabled,
		MetricsNamespace: namespace,
		MetricsAddr:      addr,
	}, nil
}

// FindConfigDir walks up from the current directory to the nearest
// directory holding embedview.yaml. It returns the current directory when
// none is found.
func FindConfigDir() (string, error) {
	start, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := start; ; {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

func validateVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid config version %q: must be semantic version like v1.0.0", v)
	}
	if semver.Major(v) != "v1" {
		return fmt.Errorf("unsupported config version %s: only v1.x is supported", v)
	}
	return nil
}
