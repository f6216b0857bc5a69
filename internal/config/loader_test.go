package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err, "explicit config file must exist")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultIterations, cfg.Analyze.Iterations)
	assert.Equal(t, DefaultInitialization, cfg.Model.Initialization)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
state_path: /tmp/bayes.db
output: json
model:
  kernels: [column_hyperparameters, row_partition_assignments]
analyze:
  iterations: 7
  max_duration: 5s
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bayes.db", cfg.StatePath)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 7, cfg.Analyze.Iterations)
	assert.Equal(t, 5*time.Second, cfg.Analyze.MaxDuration)
	assert.Equal(t, []string{"column_hyperparameters", "row_partition_assignments"}, cfg.Model.Kernels)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultInitialization, cfg.Model.Initialization)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BAYESLITE_OUTPUT", "csv")
	t.Setenv("BAYESLITE_STATE_PATH", "/tmp/env.db")
	t.Setenv("BAYESLITE_ANALYZE_ITERATIONS", "11")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output)
	assert.Equal(t, "/tmp/env.db", cfg.StatePath)
	assert.Equal(t, 11, cfg.Analyze.Iterations)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("output: json\n"), 0o600))
	t.Setenv("BAYESLITE_OUTPUT", "csv")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing state path",
			mutate:  func(c *Config) { c.StatePath = "" },
			wantErr: "state_path",
		},
		{
			name:    "unknown output",
			mutate:  func(c *Config) { c.Output = "xml" },
			wantErr: "output",
		},
		{
			name: "unbounded analyze",
			mutate: func(c *Config) {
				c.Analyze.Iterations = 0
				c.Analyze.MaxDuration = 0
			},
			wantErr: "analyze",
		},
		{
			name: "duration bound alone is enough",
			mutate: func(c *Config) {
				c.Analyze.Iterations = 0
				c.Analyze.MaxDuration = time.Minute
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StatePath: DefaultStateFile,
				Output:    DefaultOutput,
				Analyze:   AnalyzeConfig{Iterations: DefaultIterations},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
