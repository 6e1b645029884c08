package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}

	if comp.Config.Database != "tripprint.db" {
		t.Errorf("Expected default database, got %q", comp.Config.Database)
	}
	if comp.Symbolizer == nil {
		t.Error("Should have symbolizer")
	}
	if comp.Profiles == nil {
		t.Error("Should have profile store")
	}
}

func TestLoaderDatabaseOverride(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tripprint.yaml")
	if err := os.WriteFile(path, []byte("database: from-file.db\ndefault_threshold: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := Loader{ConfigPath: path, DatabasePath: "flag.db"}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Config.Database != "flag.db" {
		t.Errorf("Expected override flag.db, got %q", comp.Config.Database)
	}

	th, ok := comp.Profiles.Threshold("unseen")
	if ok {
		t.Error("Unseen entity should not report a profile")
	}
	if th != 7 {
		t.Errorf("Profiles should use configured default threshold 7, got %v", th)
	}
}

func TestLoaderNonExistentConfig(t *testing.T) {
	loader := Loader{ConfigPath: "/nonexistent/tripprint.yaml"}

	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent config")
	}
}

func TestLoaderZeroDefaultThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tripprint.yaml")
	if err := os.WriteFile(path, []byte("default_threshold: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	comp, err := (&Loader{ConfigPath: path}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th, _ := comp.Profiles.Threshold("unseen"); th != 0 {
		t.Errorf("A configured threshold of 0 should be kept, got %v", th)
	}
}
