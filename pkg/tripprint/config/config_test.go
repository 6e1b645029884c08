package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/profile"
)

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tripprint.yaml")

	content := `database: /var/lib/tripprint.db
default_threshold: 12.5
symbolizer:
  grid_size_km: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database != "/var/lib/tripprint.db" {
		t.Errorf("Expected database override, got %q", cfg.Database)
	}
	if cfg.DefaultThreshold != 12.5 {
		t.Errorf("Expected threshold 12.5, got %v", cfg.DefaultThreshold)
	}
	if cfg.Symbolizer.GridSizeKM != 5 {
		t.Errorf("Expected grid size 5, got %v", cfg.Symbolizer.GridSizeKM)
	}
	if cfg.Symbolizer.Mileage.Symbols != "abcdefghijkl" {
		t.Errorf("Mileage scale should keep its default, got %q", cfg.Symbolizer.Mileage.Symbols)
	}
	if cfg.CacheSize != profile.DefaultCacheSize {
		t.Errorf("Expected default cache size, got %d", cfg.CacheSize)
	}
	if cfg.Calibration.SampleLimit != 2500 {
		t.Errorf("Expected default sample limit, got %d", cfg.Calibration.SampleLimit)
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "tripprint.yaml"))
	if err != nil {
		t.Fatalf("Failed to load shipped config: %v", err)
	}
	if cfg.Symbolizer.Unknown != "n" {
		t.Errorf("Expected unknown symbol n, got %q", cfg.Symbolizer.Unknown)
	}
	if len(cfg.Symbolizer.TimeOfDay.Thresholds) != 10 {
		t.Errorf("Expected 10 time-of-day thresholds, got %d", len(cfg.Symbolizer.TimeOfDay.Thresholds))
	}
}

func TestLoad_InvalidScale(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.yaml")

	content := `symbolizer:
  mileage:
    thresholds: [10, 5]
    symbols: "abc"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.yaml")
	if err := os.WriteFile(path, []byte("database: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}
