// Package config provides configuration loading and management for
// cleanmask. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cleanmask/pkg/masking"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Masking holds the clean-mask synthesis options
	Masking masking.Options `yaml:"masking"`

	// Rounds controls which self-calibration rounds get a clean mask
	Rounds struct {
		// MaskRounds is the round rule in textual form: "all", a single
		// integer (that round and onwards), or a comma separated list
		MaskRounds string `yaml:"maskRounds"`

		// AllowBeamMasks is the global gate; MaskRounds is only considered
		// when this is true
		AllowBeamMasks bool `yaml:"allowBeamMasks"`
	} `yaml:"rounds"`

	// Output parameters
	Output struct {
		// SaveSignal writes the intermediate signal map next to the mask
		SaveSignal bool `yaml:"saveSignal"`

		// PreviewDir, when set, is the directory PNG previews of the mask
		// and signal map are rendered into
		PreviewDir string `yaml:"previewDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Masking = masking.DefaultOptions()
	cfg.Rounds.MaskRounds = "all"
	cfg.Rounds.AllowBeamMasks = true
	cfg.Output.SaveSignal = false
	cfg.Output.PreviewDir = ""
	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
