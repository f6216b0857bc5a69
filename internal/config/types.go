// Package config provides BayesLite configuration: where the store
// lives, how models are configured at initialization, and how analysis
// runs are bounded. It is decoupled from CLI concerns so that embedding
// programs can load the same configuration.
package config

import (
	"fmt"
	"time"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// Config holds all BayesLite configuration options.
type Config struct {
	// StatePath is the SQLite store location. ":memory:" is accepted.
	StatePath string `koanf:"state_path"`
	Verbose   bool   `koanf:"verbose"`
	// Output selects the rendering of tabular command output.
	Output  string        `koanf:"output"`
	Model   ModelConfig   `koanf:"model"`
	Analyze AnalyzeConfig `koanf:"analyze"`
}

// ModelConfig configures model initialization.
type ModelConfig struct {
	// Kernels selects the engine update kernels. Empty means all.
	Kernels           []string `koanf:"kernels"`
	Initialization    string   `koanf:"initialization"`
	RowInitialization string   `koanf:"row_initialization"`
}

// AnalyzeConfig bounds analysis runs started from configuration. At
// least one bound must be positive.
type AnalyzeConfig struct {
	Iterations  int           `koanf:"iterations"`
	MaxDuration time.Duration `koanf:"max_duration"`
}

// CoreModelConfig converts the configured model settings to the
// metamodel's configuration type.
func (m ModelConfig) CoreModelConfig() core.ModelConfig {
	kernels := m.Kernels
	if kernels == nil {
		kernels = []string{}
	}
	return core.ModelConfig{
		KernelList:        kernels,
		Initialization:    m.Initialization,
		RowInitialization: m.RowInitialization,
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	switch c.Output {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown output format %q (want table, json, or csv)", c.Output)
	}
	if c.Analyze.Iterations <= 0 && c.Analyze.MaxDuration <= 0 {
		return fmt.Errorf("analyze needs an iteration count or a duration bound")
	}
	return nil
}
