package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDisabledLogWritesNothing(t *testing.T) {
	dir := t.TempDir()
	l := New(Options{Dir: dir, Debug: false})
	defer l.CloseAll()

	l.Get(CategoryRepair).Info("should not appear")

	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Fatalf("expected no logs directory, got err=%v", err)
	}
}

func TestEnabledLogWritesToCategoryFile(t *testing.T) {
	dir := t.TempDir()
	l := New(Options{Dir: dir, Debug: true, Level: "debug"})
	defer l.CloseAll()

	l.Get(CategoryExecute).Info("attempt %d failed", 2)

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("reading logs dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 log file, got %d", len(entries))
	}
	if !strings.HasSuffix(entries[0].Name(), "_execute.log") {
		t.Errorf("unexpected log file name %q", entries[0].Name())
	}
	data, err := os.ReadFile(filepath.Join(dir, "logs", entries[0].Name()))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] attempt 2 failed") {
		t.Errorf("log content missing message: %q", string(data))
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	l := New(Options{Dir: dir, Debug: true, Level: "warn"})
	defer l.CloseAll()

	lg := l.Get(CategoryRender)
	lg.Debug("debug msg")
	lg.Info("info msg")
	lg.Warn("warn msg")
	lg.Error("error msg")

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("reading logs dir: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "logs", entries[0].Name()))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "debug msg") || strings.Contains(content, "info msg") {
		t.Errorf("low-level messages leaked through warn filter: %q", content)
	}
	if !strings.Contains(content, "warn msg") || !strings.Contains(content, "error msg") {
		t.Errorf("expected warn and error messages, got: %q", content)
	}
}

func TestCategoryFilter(t *testing.T) {
	dir := t.TempDir()
	l := New(Options{
		Dir:        dir,
		Debug:      true,
		Categories: map[string]bool{"render": false},
	})
	defer l.CloseAll()

	l.Get(CategoryRender).Info("filtered out")
	l.Get(CategorySink).Info("kept")

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("reading logs dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the sink log file, got %d files", len(entries))
	}
	if !strings.HasSuffix(entries[0].Name(), "_sink.log") {
		t.Errorf("unexpected log file %q", entries[0].Name())
	}
}

func TestNopIsSafe(t *testing.T) {
	l := Nop()
	lg := l.Get(CategoryMerge)
	lg.Info("dropped")
	lg.StartTimer("op").Stop()
	l.CloseAll()
}
