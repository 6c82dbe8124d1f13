package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds optional defaults loaded from a TOML file. Explicit
// command-line flags always win over config values.
type Config struct {
	Output         string   `toml:"output"`
	BucketSize     duration `toml:"bucket_size"`
	DBPath         string   `toml:"db_path"`
	ServeAddr      string   `toml:"serve_addr"`
	LoggerPatterns []string `toml:"logger_patterns"`
	Verbose        bool     `toml:"verbose"`
}

// duration lets TOML values like "5m" decode into a time.Duration.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Output:     "all",
		BucketSize: duration{time.Minute},
	}
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	return cfg, nil
}
