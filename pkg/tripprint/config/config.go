package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/profile"
	"github.com/cognicore/tripprint/pkg/tripprint/symbolize"
)

// Config represents the tripprint configuration file
type Config struct {
	Database         string           `yaml:"database"`
	DefaultThreshold float64          `yaml:"default_threshold"`
	CacheSize        int              `yaml:"cache_size"`
	Calibration      Calibration      `yaml:"calibration"`
	Symbolizer       symbolize.Config `yaml:"symbolizer"`
	Report           Report           `yaml:"report"`
}

// Calibration controls how labeled batches are drawn from the trip log
type Calibration struct {
	// SampleLimit caps how many trips from the head of the log are scored
	// per entity. Zero means all.
	SampleLimit int `yaml:"sample_limit"`
}

// Report controls the exported reports
type Report struct {
	Title string `yaml:"title"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Database:         "tripprint.db",
		DefaultThreshold: profile.DefaultThreshold,
		CacheSize:        profile.DefaultCacheSize,
		Calibration:      Calibration{SampleLimit: 2500},
		Symbolizer:       symbolize.DefaultConfig(),
		Report:           Report{Title: "Trip profile calibration"},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("%w: database path is empty", internalerr.ErrInvalidConfig)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Calibration.SampleLimit < 0 {
		return fmt.Errorf("%w: calibration.sample_limit must not be negative", internalerr.ErrInvalidConfig)
	}
	if err := c.Symbolizer.Validate(); err != nil {
		return fmt.Errorf("%w: symbolizer: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}
