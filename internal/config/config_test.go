package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repair.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Repair.MaxAttempts)
	}
	if cfg.Render.ViewportWidth != 1920 || cfg.Render.ViewportHeight != 1080 {
		t.Errorf("viewport = %dx%d, want 1920x1080", cfg.Render.ViewportWidth, cfg.Render.ViewportHeight)
	}
	if cfg.Execution.PythonBinary != "python3" {
		t.Errorf("PythonBinary = %q, want python3", cfg.Execution.PythonBinary)
	}
	if got := cfg.GetExecutionTimeout(); got != 300*time.Second {
		t.Errorf("execution timeout = %v, want 300s", got)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
gemini:
  model: gemini-2.0-flash
repair:
  max_attempts: 3
  save_builder_scripts: true
execution:
  timeout: 60s
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q", cfg.Gemini.Model)
	}
	if cfg.Repair.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Repair.MaxAttempts)
	}
	if !cfg.Repair.SaveBuilderScripts {
		t.Error("SaveBuilderScripts should be true")
	}
	if got := cfg.GetExecutionTimeout(); got != 60*time.Second {
		t.Errorf("execution timeout = %v, want 60s", got)
	}
	// Untouched sections keep their defaults.
	if cfg.Render.ViewportWidth != 1920 {
		t.Errorf("ViewportWidth = %d, want 1920", cfg.Render.ViewportWidth)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("gemini:\n  api_key: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("DECKFORGE_GCS_BUCKET", "my-bucket")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.Gemini.APIKey)
	}
	if cfg.Upload.Bucket != "my-bucket" {
		t.Errorf("Bucket = %q, want my-bucket", cfg.Upload.Bucket)
	}
}

func TestMalformedDurationFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.NavTimeout = "not-a-duration"
	if got := cfg.GetNavTimeout(); got != 30*time.Second {
		t.Errorf("nav timeout = %v, want 30s fallback", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Repair.MaxAttempts = 7
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Repair.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", loaded.Repair.MaxAttempts)
	}
}
