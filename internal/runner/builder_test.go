package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner satisfies commandRunner without spawning processes.
type fakeRunner struct {
	result  *Result
	err     error
	lastCmd Command
	// onRun lets a test create the artifact as a side effect.
	onRun func()
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (*Result, error) {
	f.lastCmd = cmd
	if f.onRun != nil {
		f.onRun()
	}
	return f.result, f.err
}

func newTestExecutor(t *testing.T, fake *fakeRunner) (*BuilderExecutor, string) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pptx")
	exec := NewBuilderExecutor(fake, "python3", filepath.Join(dir, "in.html"), out, dir, nil)
	return exec, out
}

func TestExecuteWritesScriptAndBuildsCommand(t *testing.T) {
	fake := &fakeRunner{result: &Result{Success: true, ExitCode: 1}}
	exec, out := newTestExecutor(t, fake)

	exec.Execute(context.Background(), "print('hi')")

	script, err := os.ReadFile(exec.ScriptPath())
	if err != nil {
		t.Fatalf("script not written: %v", err)
	}
	if string(script) != "print('hi')" {
		t.Errorf("script content = %q", script)
	}
	if fake.lastCmd.Binary != "python3" {
		t.Errorf("Binary = %q", fake.lastCmd.Binary)
	}
	args := strings.Join(fake.lastCmd.Arguments, " ")
	if !strings.Contains(args, "--html") || !strings.Contains(args, "--out "+out) {
		t.Errorf("Arguments = %q", args)
	}
}

func TestExecuteSuccessRequiresNonEmptyArtifact(t *testing.T) {
	fake := &fakeRunner{result: &Result{Success: true, ExitCode: 0}}
	exec, out := newTestExecutor(t, fake)
	fake.onRun = func() {
		if err := os.WriteFile(out, []byte("PK\x03\x04deck"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	outcome := exec.Execute(context.Background(), "code")
	if !outcome.OK {
		t.Fatalf("outcome not OK: %s", outcome.Diagnostic)
	}
	if outcome.ArtifactPath != out {
		t.Errorf("ArtifactPath = %q, want %q", outcome.ArtifactPath, out)
	}
}

func TestExecuteZeroExitMissingArtifactFails(t *testing.T) {
	fake := &fakeRunner{result: &Result{Success: true, ExitCode: 0, Stdout: "done"}}
	exec, _ := newTestExecutor(t, fake)

	outcome := exec.Execute(context.Background(), "code")
	if outcome.OK {
		t.Fatal("outcome should not be OK without an artifact")
	}
	if !strings.Contains(outcome.Diagnostic, "no artifact") {
		t.Errorf("Diagnostic = %q", outcome.Diagnostic)
	}
}

func TestExecuteZeroExitEmptyArtifactFails(t *testing.T) {
	fake := &fakeRunner{result: &Result{Success: true, ExitCode: 0}}
	exec, out := newTestExecutor(t, fake)
	fake.onRun = func() {
		if err := os.WriteFile(out, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	outcome := exec.Execute(context.Background(), "code")
	if outcome.OK {
		t.Fatal("outcome should not be OK for an empty artifact")
	}
	if !strings.Contains(outcome.Diagnostic, "empty") {
		t.Errorf("Diagnostic = %q", outcome.Diagnostic)
	}
}

func TestExecuteNonZeroExitCarriesOutput(t *testing.T) {
	fake := &fakeRunner{result: &Result{
		Success:  true,
		ExitCode: 1,
		Stdout:   "building slide 1",
		Stderr:   "TypeError: Px is not defined",
	}}
	exec, _ := newTestExecutor(t, fake)

	outcome := exec.Execute(context.Background(), "code")
	if outcome.OK {
		t.Fatal("outcome should not be OK")
	}
	if outcome.ExitCode != 1 {
		t.Errorf("ExitCode = %d", outcome.ExitCode)
	}
	for _, want := range []string{"STDOUT:", "STDERR:", "building slide 1", "TypeError"} {
		if !strings.Contains(outcome.Diagnostic, want) {
			t.Errorf("Diagnostic missing %q: %q", want, outcome.Diagnostic)
		}
	}
}

func TestExecuteKilledReportsTimeout(t *testing.T) {
	fake := &fakeRunner{result: &Result{Success: true, Killed: true, KillReason: "timeout after 5m0s"}}
	exec, _ := newTestExecutor(t, fake)

	outcome := exec.Execute(context.Background(), "code")
	if outcome.OK {
		t.Fatal("outcome should not be OK")
	}
	if !strings.Contains(outcome.Diagnostic, "timeout after 5m0s") {
		t.Errorf("Diagnostic = %q", outcome.Diagnostic)
	}
}

func TestExecuteInfrastructureErrorBecomesDiagnostic(t *testing.T) {
	fake := &fakeRunner{result: &Result{Success: false, ExitCode: -1, Error: `exec: "python3": executable file not found`}}
	exec, _ := newTestExecutor(t, fake)

	outcome := exec.Execute(context.Background(), "code")
	if outcome.OK {
		t.Fatal("outcome should not be OK")
	}
	if !strings.Contains(outcome.Diagnostic, "executable file not found") {
		t.Errorf("Diagnostic = %q", outcome.Diagnostic)
	}
}

func TestExecuteRemovesStaleArtifact(t *testing.T) {
	fake := &fakeRunner{result: &Result{Success: true, ExitCode: 1}}
	exec, out := newTestExecutor(t, fake)
	if err := os.WriteFile(out, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	outcome := exec.Execute(context.Background(), "code")
	if outcome.OK {
		t.Fatal("stale artifact must not count as success")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("stale artifact still present: %v", err)
	}
}
