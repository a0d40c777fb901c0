package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"deckforge/internal/logging"
)

// commandRunner is the subset of DirectRunner the builder needs.
type commandRunner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Outcome is the result of one builder script execution. Failures of
// every kind (bad script, missing interpreter, timeout, empty artifact)
// are reported here as a diagnostic, never as a Go error: the repair
// loop turns diagnostics into fix prompts.
type Outcome struct {
	// OK is true only when the script exited zero and produced a
	// non-empty artifact at ArtifactPath.
	OK bool

	// ArtifactPath is the produced .pptx file (set only on success).
	ArtifactPath string

	// ExitCode is the script's exit code (-1 when it never ran).
	ExitCode int

	// Diagnostic describes the failure in the form the model sees.
	Diagnostic string
}

// BuilderExecutor writes a generated builder script to disk and runs it
// against one HTML input. The script contract is fixed: it must accept
// --html and --out flags and write the deck to --out.
type BuilderExecutor struct {
	runner   commandRunner
	python   string
	htmlPath string
	outPath  string
	workDir  string
	log      *logging.Logger
}

// NewBuilderExecutor creates an executor bound to one conversion's
// input and output paths. workDir is where builder.py is written and
// must already exist.
func NewBuilderExecutor(run commandRunner, python, htmlPath, outPath, workDir string, log *logging.Logger) *BuilderExecutor {
	if python == "" {
		python = "python3"
	}
	if log == nil {
		log = logging.Nop().Get(logging.CategoryExecute)
	}
	return &BuilderExecutor{
		runner:   run,
		python:   python,
		htmlPath: htmlPath,
		outPath:  outPath,
		workDir:  workDir,
		log:      log,
	}
}

// ScriptPath returns where the builder script is written.
func (b *BuilderExecutor) ScriptPath() string {
	return filepath.Join(b.workDir, "builder.py")
}

// Execute writes code to the builder script and runs it.
func (b *BuilderExecutor) Execute(ctx context.Context, code string) Outcome {
	scriptPath := b.ScriptPath()
	if err := os.WriteFile(scriptPath, []byte(code), 0644); err != nil {
		return Outcome{ExitCode: -1, Diagnostic: fmt.Sprintf("writing builder script: %v", err)}
	}

	// A stale artifact from a previous attempt must not count as success.
	_ = os.Remove(b.outPath)

	res, err := b.runner.Run(ctx, Command{
		Binary:           b.python,
		Arguments:        []string{scriptPath, "--html", b.htmlPath, "--out", b.outPath},
		WorkingDirectory: b.workDir,
	})
	if err != nil {
		return Outcome{ExitCode: -1, Diagnostic: fmt.Sprintf("launching builder: %v", err)}
	}

	if res.Killed {
		b.log.Warn("Builder killed: %s", res.KillReason)
		return Outcome{ExitCode: -1, Diagnostic: fmt.Sprintf("builder script killed: %s", res.KillReason)}
	}
	if res.IsError() {
		return Outcome{ExitCode: -1, Diagnostic: fmt.Sprintf("builder process error: %s", res.Error)}
	}
	if res.ExitCode != 0 {
		return Outcome{
			ExitCode:   res.ExitCode,
			Diagnostic: fmt.Sprintf("builder exited with code %d\nSTDOUT:\n%s\n\nSTDERR:\n%s", res.ExitCode, res.Stdout, res.Stderr),
		}
	}

	info, statErr := os.Stat(b.outPath)
	if statErr != nil {
		return Outcome{
			ExitCode:   0,
			Diagnostic: fmt.Sprintf("builder exited 0 but wrote no artifact at %s\nSTDOUT:\n%s\n\nSTDERR:\n%s", b.outPath, res.Stdout, res.Stderr),
		}
	}
	if info.Size() == 0 {
		return Outcome{
			ExitCode:   0,
			Diagnostic: fmt.Sprintf("builder exited 0 but the artifact at %s is empty", b.outPath),
		}
	}

	b.log.Info("Builder produced %s (%d bytes)", b.outPath, info.Size())
	return Outcome{OK: true, ArtifactPath: b.outPath, ExitCode: 0}
}
