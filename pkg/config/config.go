// Package config handles configuration loading for cargoup. It supports a
// YAML-based configuration file with registry, prerelease, and ignore-list
// settings, falling back to built-in defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ajxudir/cargoup/pkg/registry"
	"github.com/ajxudir/cargoup/pkg/verbose"
)

// FileName is the local configuration file looked up in the working
// directory when no explicit path is given.
const FileName = ".cargoup.yml"

// Config holds the tool-wide settings loaded from a configuration file.
type Config struct {
	// Registry is the base URL of the registry API to query.
	Registry string `yaml:"registry"`

	// AllowPrerelease makes pre-release versions eligible as upgrade targets.
	AllowPrerelease bool `yaml:"allow_prerelease"`

	// Ignore lists crate names that are never upgraded.
	Ignore []string `yaml:"ignore"`
}

// DefaultConfig returns the built-in configuration used when no file is found.
//
// Returns:
//   - *Config: configuration pointing at the default registry with no
//     ignore list
func DefaultConfig() *Config {
	return &Config{
		Registry: registry.DefaultBaseURL,
	}
}

// LoadConfig loads configuration from the specified path or defaults.
//
// If configPath is provided, it loads that specific config file and fails
// when the file does not exist. Otherwise it looks for .cargoup.yml in the
// working directory and falls back to the built-in defaults when no file
// is found.
//
// Parameters:
//   - configPath: path to the config file, or empty to use defaults
//   - workDir: working directory to search for a local config file
//
// Returns:
//   - *Config: the loaded configuration
//   - error: any error encountered during loading
func LoadConfig(configPath, workDir string) (*Config, error) {
	if configPath != "" {
		verbose.Infof("Loading config from: %s", configPath)
		cfg, err := loadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return cfg, nil
	}

	localConfig := filepath.Join(workDir, FileName)
	if _, err := os.Stat(localConfig); err == nil {
		verbose.Infof("Found local config: %s", localConfig)
		cfg, err := loadConfigFile(localConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return cfg, nil
	}

	verbose.Info("Using built-in default configuration")
	return DefaultConfig(), nil
}

// loadConfigFile reads and parses a single YAML config file.
//
// Parameters:
//   - path: path to the config file
//
// Returns:
//   - *Config: the parsed configuration with defaults applied for
//     unset fields
//   - error: error if the file is not found or has invalid YAML
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	if cfg.Registry == "" {
		cfg.Registry = registry.DefaultBaseURL
	}

	return cfg, nil
}
