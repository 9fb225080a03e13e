// Package config holds the settings for one monitoring run. Defaults can
// come from an optional YAML file; command-line flags override it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the effective configuration for one invocation.
type Config struct {
	WebhookURL string `yaml:"webhook_url"`
	Queue      string `yaml:"queue"`
	Instance   string `yaml:"instance"`
	StateFile  string `yaml:"state_file"`
	DBDriver   string `yaml:"db_driver"`
	DBDSN      string `yaml:"db_dsn"`
	LogLevel   string `yaml:"log_level"`

	MaxNewJobs int `yaml:"max_new_jobs"`
	MaxRate    int `yaml:"max_rate"`

	RateWindowStr    string `yaml:"rate_window"`
	MaxRunningAgeStr string `yaml:"max_running_age"`

	// Derived from the *Str fields by Finalize.
	RateWindow    time.Duration `yaml:"-"`
	MaxRunningAge time.Duration `yaml:"-"`
}

// Default returns the configuration used when neither file nor flags say
// otherwise. MaxRunningAge defaults to 0: stuck-job detection is opt-in.
func Default() *Config {
	return &Config{
		Queue:            "default",
		StateFile:        "jobwatch-state.json",
		DBDriver:         "mysql",
		LogLevel:         "info",
		MaxNewJobs:       100,
		MaxRate:          50,
		RateWindowStr:    "15m",
		MaxRunningAgeStr: "0",
	}
}

// Load reads YAML settings from filePath on top of the defaults.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", filePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", filePath, err)
	}
	return cfg, nil
}

// Finalize derives the duration fields and validates the configuration.
// It must be called after all overrides have been applied.
func (c *Config) Finalize() error {
	var err error
	if c.RateWindow, err = ParseWindow(c.RateWindowStr); err != nil {
		return fmt.Errorf("rate window: %w", err)
	}
	if c.MaxRunningAge, err = ParseWindow(c.MaxRunningAgeStr); err != nil {
		return fmt.Errorf("max running age: %w", err)
	}

	if c.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive, got %q", c.RateWindowStr)
	}
	if c.MaxRunningAge < 0 {
		return fmt.Errorf("max running age cannot be negative, got %q", c.MaxRunningAgeStr)
	}
	if c.MaxNewJobs < 0 {
		return fmt.Errorf("max new jobs cannot be negative, got %d", c.MaxNewJobs)
	}
	if c.MaxRate < 0 {
		return fmt.Errorf("max rate cannot be negative, got %d", c.MaxRate)
	}
	switch c.DBDriver {
	case "mysql", "sqlite3":
	default:
		return fmt.Errorf("unsupported db driver %q (use mysql or sqlite3)", c.DBDriver)
	}

	if c.Instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("resolve instance name from hostname: %w", err)
		}
		c.Instance = hostname
	}
	return nil
}
