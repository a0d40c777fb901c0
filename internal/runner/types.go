// Package runner executes the generated deck builder scripts as
// subprocesses. It captures bounded output, enforces timeouts, and
// reports command failure as data rather than as an error: a non-zero
// exit is a normal result the repair loop feeds back to the model.
package runner

import (
	"time"
)

// Command represents a subprocess to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "python3").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// WorkingDirectory is the directory to execute in.
	// If empty, uses the runner's default working directory.
	WorkingDirectory string `json:"working_directory,omitempty"`

	// Environment variables to set (in KEY=VALUE format).
	// These are merged with the runner's allowed environment.
	Environment []string `json:"environment,omitempty"`

	// Stdin provides input to the command's standard input.
	Stdin string `json:"stdin,omitempty"`

	// Limits specifies resource constraints for execution.
	Limits *Limits `json:"limits,omitempty"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	result := c.Binary
	for _, arg := range c.Arguments {
		result += " " + arg
	}
	return result
}

// Limits defines constraints on command execution.
type Limits struct {
	// TimeoutMs is the maximum execution time in milliseconds.
	// Zero means use the runner's default timeout.
	TimeoutMs int64 `json:"timeout_ms,omitempty"`

	// MaxOutputBytes limits captured stdout+stderr size.
	// Zero means use the runner's default.
	MaxOutputBytes int64 `json:"max_output_bytes,omitempty"`
}

// Result is the output of command execution.
type Result struct {
	// Success indicates whether the command completed without error.
	// Note: a command that runs but returns non-zero exit code has
	// Success=true. Success=false means the execution infrastructure
	// failed (binary missing, fork failure).
	Success bool `json:"success"`

	// ExitCode is the command's exit code (-1 if not available).
	ExitCode int `json:"exit_code"`

	// Stdout is the captured standard output.
	Stdout string `json:"stdout"`

	// Stderr is the captured standard error.
	Stderr string `json:"stderr"`

	// Duration is how long the command ran.
	Duration time.Duration `json:"duration"`

	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when execution completed.
	FinishedAt time.Time `json:"finished_at"`

	// Killed indicates the command was forcibly terminated.
	Killed bool `json:"killed"`

	// KillReason explains why the command was killed.
	KillReason string `json:"kill_reason,omitempty"`

	// Truncated indicates output was truncated due to size limits.
	Truncated bool `json:"truncated"`

	// TruncatedBytes is how many bytes were discarded.
	TruncatedBytes int64 `json:"truncated_bytes,omitempty"`

	// Error contains any infrastructure-level error message.
	Error string `json:"error,omitempty"`
}

// IsError returns true if the execution infrastructure failed.
func (r *Result) IsError() bool {
	return !r.Success || r.Error != ""
}

// IsNonZeroExit returns true if the command ran but returned non-zero.
func (r *Result) IsNonZeroExit() bool {
	return r.Success && r.ExitCode != 0
}

// Output returns stdout and stderr combined.
func (r *Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Config is the configuration for creating runners.
type Config struct {
	// DefaultWorkingDir is used when Command.WorkingDirectory is empty.
	DefaultWorkingDir string `json:"default_working_dir"`

	// DefaultTimeout is used when no timeout is specified.
	DefaultTimeout time.Duration `json:"default_timeout"`

	// MaxTimeout caps all timeout values.
	MaxTimeout time.Duration `json:"max_timeout"`

	// AllowedEnvironment lists environment variables to pass through.
	AllowedEnvironment []string `json:"allowed_environment"`

	// MaxOutputBytes caps output capture.
	MaxOutputBytes int64 `json:"max_output_bytes"`
}

// DefaultConfig returns sensible defaults for builder execution.
func DefaultConfig() Config {
	return Config{
		DefaultWorkingDir:  ".",
		DefaultTimeout:     300 * time.Second,
		MaxTimeout:         10 * time.Minute,
		MaxOutputBytes:     1 << 20,
		AllowedEnvironment: []string{"PATH", "HOME", "LANG", "LC_ALL", "PYTHONPATH", "VIRTUAL_ENV"},
	}
}

// Merge combines this config with command-specific settings.
// Command settings override config defaults.
func (c Config) Merge(cmd Command) Command {
	result := cmd

	if result.WorkingDirectory == "" {
		result.WorkingDirectory = c.DefaultWorkingDir
	}

	if result.Limits == nil {
		result.Limits = &Limits{
			TimeoutMs:      int64(c.DefaultTimeout / time.Millisecond),
			MaxOutputBytes: c.MaxOutputBytes,
		}
	} else {
		if result.Limits.TimeoutMs == 0 {
			result.Limits.TimeoutMs = int64(c.DefaultTimeout / time.Millisecond)
		}
		if result.Limits.MaxOutputBytes == 0 {
			result.Limits.MaxOutputBytes = c.MaxOutputBytes
		}
	}

	if c.MaxTimeout > 0 {
		maxMs := int64(c.MaxTimeout / time.Millisecond)
		if result.Limits.TimeoutMs > maxMs {
			result.Limits.TimeoutMs = maxMs
		}
	}

	return result
}
