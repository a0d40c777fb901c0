// Package convert drives the HTML-to-PPTX conversion: screenshot the
// document, ask the model for a python-pptx builder script, run it, and
// on failure feed the code and its error back to the model until an
// artifact appears or the attempt budget runs out.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"deckforge/internal/generate"
	"deckforge/internal/logging"
	"deckforge/internal/runner"
)

// Generator produces builder code from a prompt and optional image.
// *generate.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Response, error)
}

// Executor runs one builder script against the conversion's input and
// output paths. *runner.BuilderExecutor satisfies it.
type Executor interface {
	Execute(ctx context.Context, code string) runner.Outcome
}

// Attempt records one turn of the repair loop.
type Attempt struct {
	// Index is 1-based.
	Index int `json:"index"`

	// Code is the extracted builder script (empty when the model
	// produced no code block).
	Code string `json:"code,omitempty"`

	// ExitCode is the builder's exit code (-1 when it never ran).
	ExitCode int `json:"exit_code"`

	// OK marks the successful attempt.
	OK bool `json:"ok"`

	// Diagnostic is what went wrong, in the form shown to the model.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// LoopResult is returned when some attempt succeeds.
type LoopResult struct {
	ArtifactPath string
	Attempts     int
	History      []Attempt
	Usage        generate.Usage
}

// LoopOptions configures one repair loop.
type LoopOptions struct {
	// MaxAttempts bounds the loop. Values below 1 fall back to 5.
	MaxAttempts int

	// DebugDir, when set, receives builder_attempt_N.py and
	// attempt_N_output.txt files for post-mortem inspection.
	DebugDir string
}

// Loop is the bounded generate-execute-fix cycle.
type Loop struct {
	gen         Generator
	exec        Executor
	maxAttempts int
	debugDir    string
	log         *logging.Logger
}

// NewLoop creates a repair loop. A nil logger is replaced with a no-op
// one.
func NewLoop(gen Generator, exec Executor, opts LoopOptions, log *logging.Logger) *Loop {
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	if log == nil {
		log = logging.Nop().Get(logging.CategoryRepair)
	}
	return &Loop{
		gen:         gen,
		exec:        exec,
		maxAttempts: maxAttempts,
		debugDir:    opts.DebugDir,
		log:         log,
	}
}

// Run executes the repair loop for one document. The screenshot rides
// along on the first generation only; fix requests are text-only and
// carry just the immediately preceding code and diagnostic.
//
// Attempts that produce no usable code (a generator error, or a reply
// without a code block) still consume an attempt. Since there is no
// new code to fix, the next attempt falls back to the last known code,
// or to a fresh generation when no code ever existed.
func (l *Loop) Run(ctx context.Context, screenshotPNG []byte, html string) (*LoopResult, error) {
	var (
		history  []Attempt
		usage    generate.Usage
		prevCode string
		prevDiag string
	)

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := Attempt{Index: attempt, ExitCode: -1}

		var req generate.Request
		if prevCode == "" {
			req = generate.Request{Prompt: BuildCodegenPrompt(html), ImagePNG: screenshotPNG}
			l.log.Info("Attempt %d/%d: requesting initial generation", attempt, l.maxAttempts)
		} else {
			req = generate.Request{Prompt: BuildFixPrompt(prevCode, prevDiag)}
			l.log.Info("Attempt %d/%d: requesting fix", attempt, l.maxAttempts)
		}

		resp, err := l.gen.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rec.Diagnostic = fmt.Sprintf("generator error: %v", err)
			l.log.Warn("Attempt %d: %s", attempt, rec.Diagnostic)
			history = append(history, rec)
			prevDiag = rec.Diagnostic
			continue
		}
		usage = usage.Add(resp.Usage)

		code, ok := ExtractCodeBlock(resp.Text, "python")
		if !ok {
			rec.Diagnostic = "model response contained no code block"
			l.log.Warn("Attempt %d: %s (%d chars of prose)", attempt, rec.Diagnostic, len(resp.Text))
			history = append(history, rec)
			prevDiag = rec.Diagnostic
			continue
		}
		rec.Code = code
		l.saveDebugFile(fmt.Sprintf("builder_attempt_%d.py", attempt), code)

		outcome := l.exec.Execute(ctx, code)
		rec.ExitCode = outcome.ExitCode
		if outcome.OK {
			rec.OK = true
			history = append(history, rec)
			l.log.Info("Attempt %d succeeded: %s", attempt, outcome.ArtifactPath)
			return &LoopResult{
				ArtifactPath: outcome.ArtifactPath,
				Attempts:     attempt,
				History:      history,
				Usage:        usage,
			}, nil
		}

		rec.Diagnostic = outcome.Diagnostic
		l.saveDebugFile(fmt.Sprintf("attempt_%d_output.txt", attempt), outcome.Diagnostic)
		l.log.Warn("Attempt %d failed (exit=%d)", attempt, outcome.ExitCode)
		history = append(history, rec)
		prevCode, prevDiag = code, outcome.Diagnostic
	}

	l.log.Error("All %d attempts exhausted", l.maxAttempts)
	return nil, &ExhaustedError{
		Attempts: l.maxAttempts,
		History:  history,
		Usage:    usage,
	}
}

func (l *Loop) saveDebugFile(name, content string) {
	if l.debugDir == "" {
		return
	}
	path := filepath.Join(l.debugDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		l.log.Warn("Could not save %s: %v", path, err)
	}
}
