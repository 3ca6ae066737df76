package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr   string `yaml:"addr"`
	Shards int    `yaml:"shards"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:   ":6380",
		Shards: 4,
	}
}

// ReadConfig loads path over the defaults. Fields missing from the file
// keep their default values.
func ReadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
