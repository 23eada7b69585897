package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// FileConfig is the ptsync configuration file.
type FileConfig struct {
	// Schema is the schema type, by registered name or file, used when
	// -schema is not given.
	Schema string `yaml:"schema"`
	// SchemaDir is a directory of schema type files registered by name.
	SchemaDir string `yaml:"schemas"`
	// Color forces colored notifications on or off.
	Color *bool `yaml:"color"`
	Debug bool  `yaml:"debug"`
	Serve struct {
		// Gops starts the gops diagnostics agent.
		Gops bool `yaml:"gops"`
	} `yaml:"serve"`
}

func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a FileConfig with defaults.
func DefaultConfig() *FileConfig {
	return &FileConfig{}
}
