package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"deckforge/internal/generate"
	"deckforge/internal/logging"
)

// Renderer captures a PNG screenshot of a local HTML file.
// *render.Capturer satisfies it.
type Renderer interface {
	CaptureFile(ctx context.Context, htmlPath string) ([]byte, error)
}

// Sink delivers a finished artifact and returns its final location: a
// filesystem path for local delivery, a URL for remote storage.
type Sink interface {
	Store(ctx context.Context, artifactPath, sourcePath string) (string, error)
}

// ExecutorFactory builds the executor for one conversion, bound to its
// input, output, and scratch paths.
type ExecutorFactory func(htmlPath, outPath, workDir string) Executor

// Options configures a Session.
type Options struct {
	// MaxAttempts bounds the repair loop (values below 1 mean 5).
	MaxAttempts int

	// SaveBuilderScripts keeps every attempt's script and output next
	// to the input file for debugging.
	SaveBuilderScripts bool

	// SaveScreenshot writes the captured PNG next to the input file.
	SaveScreenshot bool
}

// Result is a completed conversion.
type Result struct {
	// Location is where the artifact ended up.
	Location string

	// Title is the HTML document title, if any.
	Title string

	// Attempts is how many loop turns the conversion took.
	Attempts int

	// History is the full attempt trajectory.
	History []Attempt

	// Usage is the total token spend across all attempts.
	Usage generate.Usage
}

// Session wires the pipeline stages together. One Session converts any
// number of documents; per-document state lives in the loop.
type Session struct {
	render      Renderer
	gen         Generator
	newExecutor ExecutorFactory
	sink        Sink
	opts        Options
	log         *logging.Log
}

// NewSession creates a conversion session. A nil log is replaced with a
// no-op one.
func NewSession(render Renderer, gen Generator, factory ExecutorFactory, sink Sink, opts Options, log *logging.Log) *Session {
	if log == nil {
		log = logging.Nop()
	}
	return &Session{
		render:      render,
		gen:         gen,
		newExecutor: factory,
		sink:        sink,
		opts:        opts,
		log:         log,
	}
}

// Convert runs the full pipeline for one HTML file. Missing input and
// failed screenshot capture are fatal and consume no attempts; every
// other failure mode flows through the repair loop, surfacing as
// *ExhaustedError when the budget runs out.
func (s *Session) Convert(ctx context.Context, htmlPath string) (*Result, error) {
	log := s.log.Get(logging.CategoryRepair)
	timer := log.StartTimer("conversion")
	defer timer.StopWithInfo()

	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return nil, &InputError{Path: htmlPath, Err: err}
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, &InputError{Path: abs, Err: err}
	}
	title := DocumentTitle(string(source))
	log.Info("Converting %s (title=%q, %d bytes)", abs, title, len(source))

	png, err := s.render.CaptureFile(ctx, abs)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	if s.opts.SaveScreenshot {
		shotPath := replaceExt(abs, "_screenshot.png")
		if werr := os.WriteFile(shotPath, png, 0644); werr != nil {
			log.Warn("Could not save screenshot to %s: %v", shotPath, werr)
		}
	}

	workDir, err := os.MkdirTemp("", "deckforge-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	outPath := filepath.Join(workDir, "out.pptx")
	exec := s.newExecutor(abs, outPath, workDir)

	debugDir := ""
	if s.opts.SaveBuilderScripts {
		debugDir = filepath.Dir(abs)
	}
	loop := NewLoop(s.gen, exec, LoopOptions{
		MaxAttempts: s.opts.MaxAttempts,
		DebugDir:    debugDir,
	}, log)

	lres, err := loop.Run(ctx, png, string(source))
	if err != nil {
		return nil, err
	}

	location, err := s.sink.Store(ctx, lres.ArtifactPath, abs)
	if err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}
	log.Info("Delivered %s after %d attempt(s)", location, lres.Attempts)

	return &Result{
		Location: location,
		Title:    title,
		Attempts: lres.Attempts,
		History:  lres.History,
		Usage:    lres.Usage,
	}, nil
}

// replaceExt swaps a path's extension for the given suffix, so
// slide_1.html becomes slide_1_screenshot.png.
func replaceExt(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix
}
