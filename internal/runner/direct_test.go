package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestValidateRequiresBinary(t *testing.T) {
	r := NewDirectRunner(DefaultConfig(), nil)
	if err := r.Validate(Command{}); err == nil {
		t.Error("expected error for empty binary")
	}
	if err := r.Validate(Command{Binary: "python3"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Binary: "python3", Arguments: []string{"builder.py", "--html", "in.html"}}
	if got := cmd.CommandString(); got != "python3 builder.py --html in.html" {
		t.Errorf("CommandString = %q", got)
	}
	if got := (Command{Binary: "ls"}).CommandString(); got != "ls" {
		t.Errorf("CommandString = %q", got)
	}
}

func TestConfigMergeAppliesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultTimeout = 42 * time.Second
	cfg.MaxOutputBytes = 1234

	merged := cfg.Merge(Command{Binary: "x"})
	if merged.Limits == nil {
		t.Fatal("Limits not populated")
	}
	if merged.Limits.TimeoutMs != 42000 {
		t.Errorf("TimeoutMs = %d, want 42000", merged.Limits.TimeoutMs)
	}
	if merged.Limits.MaxOutputBytes != 1234 {
		t.Errorf("MaxOutputBytes = %d, want 1234", merged.Limits.MaxOutputBytes)
	}
	if merged.WorkingDirectory != "." {
		t.Errorf("WorkingDirectory = %q, want .", merged.WorkingDirectory)
	}
}

func TestConfigMergeCapsTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTimeout = time.Second

	merged := cfg.Merge(Command{Binary: "x", Limits: &Limits{TimeoutMs: 60000}})
	if merged.Limits.TimeoutMs != 1000 {
		t.Errorf("TimeoutMs = %d, want capped to 1000", merged.Limits.TimeoutMs)
	}
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	r := NewDirectRunner(DefaultConfig(), nil)

	res, err := r.Run(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "echo out; echo err >&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success {
		t.Errorf("Success = false, want true (command ran)")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "out") {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if !strings.Contains(res.Stderr, "err") {
		t.Errorf("Stderr = %q", res.Stderr)
	}
	if !res.IsNonZeroExit() {
		t.Error("IsNonZeroExit should be true")
	}
}

func TestRunMissingBinaryIsInfrastructureError(t *testing.T) {
	r := NewDirectRunner(DefaultConfig(), nil)

	res, err := r.Run(context.Background(), Command{Binary: "definitely-not-a-real-binary-xyz"})
	if err != nil {
		t.Fatalf("Run should not return an error: %v", err)
	}
	if res.Success {
		t.Error("Success should be false for a missing binary")
	}
	if res.Error == "" {
		t.Error("Error should describe the launch failure")
	}
	if !res.IsError() {
		t.Error("IsError should be true")
	}
}

func TestRunTimeoutKillsCommand(t *testing.T) {
	r := NewDirectRunner(DefaultConfig(), nil)

	res, err := r.Run(context.Background(), Command{
		Binary:    "sleep",
		Arguments: []string{"10"},
		Limits:    &Limits{TimeoutMs: 100},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Killed {
		t.Error("Killed should be true")
	}
	if !strings.Contains(res.KillReason, "timeout") {
		t.Errorf("KillReason = %q", res.KillReason)
	}
}

func TestRunHonorsOutputLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOutputBytes = 64
	r := NewDirectRunner(cfg, nil)

	res, err := r.Run(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "yes x | head -c 4096"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated should be true")
	}
	if int64(len(res.Stdout)) > 64 {
		t.Errorf("Stdout len = %d, want <= 64", len(res.Stdout))
	}
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, max: 10}

	n, err := lw.Write([]byte("12345"))
	if err != nil || n != 5 {
		t.Fatalf("first write: n=%d err=%v", n, err)
	}
	// Crosses the limit: partial write, full length reported.
	n, err = lw.Write([]byte("6789012345"))
	if err != nil || n != 10 {
		t.Fatalf("second write: n=%d err=%v", n, err)
	}
	if buf.String() != "1234567890" {
		t.Errorf("buffer = %q", buf.String())
	}
	if !lw.truncated {
		t.Error("truncated should be set")
	}
	// Past the limit: everything discarded.
	discardedBefore := lw.discarded
	if n, err := lw.Write([]byte("abc")); err != nil || n != 3 {
		t.Fatalf("third write: n=%d err=%v", n, err)
	}
	if lw.discarded != discardedBefore+3 {
		t.Errorf("discarded = %d, want %d", lw.discarded, discardedBefore+3)
	}
}
