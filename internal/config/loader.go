package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "bayeslite.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "bayeslite.yml"

// EnvPrefix is the prefix of configuration environment variables:
// BAYESLITE_STATE_PATH, BAYESLITE_ANALYZE_ITERATIONS, and so on.
const EnvPrefix = "BAYESLITE_"

// Load builds a Config from the layered sources, lowest precedence
// first: built-in defaults, the config file, BAYESLITE_* environment
// variables, and command-line flags. cfgFile empty means search the
// working directory for bayeslite.yaml or bayeslite.yml; a missing
// config file is not an error. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if cfgFile == "" {
		cfgFile = findConfigFile(".")
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", cfgFile, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		// BAYESLITE_ANALYZE_ITERATIONS -> analyze.iterations; one level
		// of nesting at most, so only the first underscore splits.
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		for _, section := range []string{"model_", "analyze_"} {
			if strings.HasPrefix(s, section) {
				return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(s, section)
			}
		}
		return s
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load config from flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
