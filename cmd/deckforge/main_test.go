package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"convert", "merge", "version"} {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	apiKey = "flag-key"
	modelName = "gemini-test"
	maxAttempts = 3
	gcsBucket = "flag-bucket"
	defer func() {
		configPath, apiKey, modelName, gcsBucket = "", "", "", ""
		maxAttempts = 0
	}()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Gemini.APIKey != "flag-key" {
		t.Errorf("APIKey = %q, want flag value", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-test" {
		t.Errorf("Model = %q, want flag value", cfg.Gemini.Model)
	}
	if cfg.Repair.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Repair.MaxAttempts)
	}
	if cfg.Upload.Bucket != "flag-bucket" {
		t.Errorf("Bucket = %q, want flag value", cfg.Upload.Bucket)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	defer func() { configPath = "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Repair.MaxAttempts != 5 {
		t.Errorf("default MaxAttempts = %d, want 5", cfg.Repair.MaxAttempts)
	}
	if cfg.Execution.PythonBinary != "python3" {
		t.Errorf("default PythonBinary = %q", cfg.Execution.PythonBinary)
	}
}

func TestConvertRejectsOutWithMultipleInputs(t *testing.T) {
	logger = zap.NewNop()
	outPath = "deck.pptx"
	defer func() { outPath = "" }()

	err := runConvert(&cobra.Command{}, []string{"a.html", "b.html"})
	if err == nil {
		t.Fatal("expected error for --out with multiple inputs")
	}
	if !strings.Contains(err.Error(), "--out") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	output := captureOutput(t, func() {
		versionCmd.Run(versionCmd, nil)
	})
	if !strings.Contains(output, version) {
		t.Errorf("version output %q missing %q", output, version)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	rOut, wOut, _ := os.Pipe()
	os.Stdout = wOut

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	os.Stdout = origOut
	return <-done
}
