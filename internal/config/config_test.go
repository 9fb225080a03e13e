package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		expected time.Duration
		wantErr  bool
	}{
		{name: "bare_minutes", in: "15", expected: 15 * time.Minute},
		{name: "minutes_suffix", in: "15m", expected: 15 * time.Minute},
		{name: "seconds", in: "900s", expected: 900 * time.Second},
		{name: "hours", in: "2h", expected: 2 * time.Hour},
		{name: "zero_disabled", in: "0", expected: 0},
		{name: "zero_minutes", in: "0m", expected: 0},
		{name: "whitespace", in: " 5m ", expected: 5 * time.Minute},
		{name: "uppercase", in: "5M", expected: 5 * time.Minute},
		{name: "empty", in: "", wantErr: true},
		{name: "negative", in: "-5m", wantErr: true},
		{name: "garbage", in: "soon", wantErr: true},
		{name: "days_unsupported", in: "1d", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := ParseWindow(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobwatch.yaml")
	contents := `
webhook_url: "https://chat.example.org/hooks/abc"
queue: "long_tasks"
instance: "ils-prod"
db_driver: "mysql"
db_dsn: "monitor:secret@tcp(db:3306)/library"
max_new_jobs: 250
max_rate: 80
rate_window: "10m"
max_running_age: "1h"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, "https://chat.example.org/hooks/abc", cfg.WebhookURL)
	assert.Equal(t, "long_tasks", cfg.Queue)
	assert.Equal(t, "ils-prod", cfg.Instance)
	assert.Equal(t, 250, cfg.MaxNewJobs)
	assert.Equal(t, 80, cfg.MaxRate)
	assert.Equal(t, 10*time.Minute, cfg.RateWindow)
	assert.Equal(t, time.Hour, cfg.MaxRunningAge)
	// Untouched settings keep their defaults.
	assert.Equal(t, "jobwatch-state.json", cfg.StateFile)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFinalizeValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "zero_rate_window",
			mutate: func(c *Config) { c.RateWindowStr = "0" },
			errMsg: "rate window",
		},
		{
			name:   "bad_rate_window",
			mutate: func(c *Config) { c.RateWindowStr = "later" },
			errMsg: "rate window",
		},
		{
			name:   "bad_running_age",
			mutate: func(c *Config) { c.MaxRunningAgeStr = "ages" },
			errMsg: "max running age",
		},
		{
			name:   "negative_max_new_jobs",
			mutate: func(c *Config) { c.MaxNewJobs = -1 },
			errMsg: "max new jobs",
		},
		{
			name:   "negative_max_rate",
			mutate: func(c *Config) { c.MaxRate = -1 },
			errMsg: "max rate",
		},
		{
			name:   "unknown_driver",
			mutate: func(c *Config) { c.DBDriver = "oracle" },
			errMsg: "db driver",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Finalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestFinalizeDefaultsInstanceToHostname(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Finalize())

	hostname, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, hostname, cfg.Instance)
}

func TestFinalizeKeepsExplicitInstance(t *testing.T) {
	cfg := Default()
	cfg.Instance = "ils-staging"
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, "ils-staging", cfg.Instance)
}
