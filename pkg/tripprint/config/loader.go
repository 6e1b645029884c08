package config

import (
	"fmt"
	"log/slog"

	"github.com/cognicore/tripprint/pkg/tripprint/profile"
	"github.com/cognicore/tripprint/pkg/tripprint/symbolize"
)

// Loader loads the configuration file and constructs components
type Loader struct {
	ConfigPath   string
	DatabasePath string // overrides the database from the file when set
	Logger       *slog.Logger
}

// Components holds all loaded configuration components
type Components struct {
	Config     *Config
	Symbolizer *symbolize.Buckets
	Profiles   *profile.Store
}

// Load reads the configuration and returns initialized components
func (l *Loader) Load() (*Components, error) {
	cfg := Default()
	if l.ConfigPath != "" {
		loaded, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = *loaded
	}
	if l.DatabasePath != "" {
		cfg.Database = l.DatabasePath
	}

	return &Components{
		Config:     &cfg,
		Symbolizer: symbolize.New(cfg.Symbolizer),
		Profiles: profile.New(profile.Options{
			DefaultThreshold: &cfg.DefaultThreshold,
			CacheSize:        cfg.CacheSize,
			Logger:           l.Logger,
		}),
	}, nil
}
