package convert

import (
	"fmt"

	"deckforge/internal/generate"
)

// InputError reports a missing or unreadable source document. It is
// fatal: the repair loop never starts, no model call is made.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// RenderError reports a failed screenshot capture. Also fatal: without
// the visual ground truth the generator has nothing to replicate.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ExhaustedError reports that every repair attempt failed. It carries
// the full attempt history so callers can inspect or persist the
// trajectory.
type ExhaustedError struct {
	Attempts int
	History  []Attempt
	Usage    generate.Usage
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("conversion failed after %d attempts: %s", e.Attempts, e.LastDiagnostic())
}

// Last returns the final attempt record.
func (e *ExhaustedError) Last() Attempt {
	if len(e.History) == 0 {
		return Attempt{}
	}
	return e.History[len(e.History)-1]
}

// LastDiagnostic returns the final attempt's failure diagnostic.
func (e *ExhaustedError) LastDiagnostic() string {
	return e.Last().Diagnostic
}
