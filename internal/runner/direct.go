package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"deckforge/internal/logging"
)

// DirectRunner executes commands directly on the host using os/exec.
type DirectRunner struct {
	config Config
	log    *logging.Logger
}

// NewDirectRunner creates a runner with the given config. A nil logger
// is replaced with a no-op one.
func NewDirectRunner(config Config, log *logging.Logger) *DirectRunner {
	if log == nil {
		log = logging.Nop().Get(logging.CategoryExecute)
	}
	return &DirectRunner{config: config, log: log}
}

// Validate checks if a command can be executed.
func (r *DirectRunner) Validate(cmd Command) error {
	if cmd.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	return nil
}

// Run executes a command on the host. The returned error covers
// validation only; command failures of every kind are reported in the
// Result so callers can feed them back as diagnostics.
func (r *DirectRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	timer := r.log.StartTimer("command execution")
	defer timer.Stop()

	if err := r.Validate(cmd); err != nil {
		r.log.Warn("Command validation failed: %s %v - %v", cmd.Binary, cmd.Arguments, err)
		return nil, err
	}

	cmd = r.config.Merge(cmd)
	r.log.Info("Executing: %s (dir=%s, timeout=%dms)",
		cmd.CommandString(), cmd.WorkingDirectory, cmd.Limits.TimeoutMs)

	result := &Result{ExitCode: -1}

	timeout := time.Duration(cmd.Limits.TimeoutMs) * time.Millisecond
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = r.buildEnvironment(cmd.Environment)

	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: cmd.Limits.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: cmd.Limits.MaxOutputBytes}
	execCmd.Stdout = stdoutLimited
	execCmd.Stderr = stderrLimited

	result.StartedAt = time.Now()
	err := execCmd.Run()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if stdoutLimited.truncated || stderrLimited.truncated {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		r.log.Warn("Command output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	switch {
	case err == nil:
		result.Success = true
		result.ExitCode = 0
		r.log.Debug("Command succeeded with exit code 0")
	case execCtx.Err() == context.DeadlineExceeded:
		result.Killed = true
		result.KillReason = fmt.Sprintf("timeout after %s", timeout)
		result.Success = true // Infrastructure worked, command was killed
		r.log.Warn("Command killed (timeout): %s after %s", cmd.Binary, timeout)
	case execCtx.Err() == context.Canceled:
		result.Killed = true
		result.KillReason = "context canceled"
		result.Success = true
		r.log.Debug("Command canceled: %s", cmd.Binary)
	default:
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.Success = true // Command ran, just returned non-zero
			result.ExitCode = exitErr.ExitCode()
			r.log.Debug("Command exited non-zero: %s -> %d", cmd.Binary, result.ExitCode)
		} else {
			result.Success = false
			result.Error = err.Error()
			r.log.Error("Command failed: %s - %v", cmd.Binary, err)
		}
	}

	r.log.Info("Command completed: %s -> exit=%d, duration=%s, stdout=%d bytes",
		cmd.Binary, result.ExitCode, result.Duration, len(result.Stdout))

	return result, nil
}

// buildEnvironment creates the environment variable list.
func (r *DirectRunner) buildEnvironment(cmdEnv []string) []string {
	env := make([]string, 0)
	for _, key := range r.config.AllowedEnvironment {
		if val := os.Getenv(key); val != "" {
			env = append(env, fmt.Sprintf("%s=%s", key, val))
		}
	}
	env = append(env, cmdEnv...)
	return env
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		// Partial write
		lw.truncated = true
		toWrite := p[:remaining]
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(toWrite)
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
