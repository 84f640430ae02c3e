package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// TimeoutExitCode is the sentinel exit code reported for killed runs.
// Matches the conventional `timeout(1)` exit status and cannot collide with
// a real Python exit code on our platforms.
const TimeoutExitCode = 124

// RunResult is everything the grader needs to know about one run.
type RunResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// CodeRunner executes untrusted source and reports what happened. Program
// failures (syntax errors, exceptions, non-zero exit) are not runner errors;
// they show up in ExitCode/Stderr. An error return means the runner itself
// could not do its job.
type CodeRunner interface {
	Run(source, stdin string, timeout time.Duration) (RunResult, error)
}

// PythonRunner runs source through `python -c` in a fresh OS process per
// call, so nothing leaks between invocations.
type PythonRunner struct {
	Bin            string
	DefaultTimeout time.Duration
}

// NewPythonRunner wires the runner from config.
func NewPythonRunner(cfg *Config) *PythonRunner {
	return &PythonRunner{Bin: cfg.PythonBin, DefaultTimeout: cfg.SandboxTimeout}
}

// Run executes source with stdin attached, enforcing the wall-clock timeout
// itself. On timeout the process is killed, partial output is kept, and a
// localized note is appended to stderr.
func (r *PythonRunner) Run(source, stdin string, timeout time.Duration) (RunResult, error) {
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Bin, "-c", source)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		note := fmt.Sprintf("Программа превысила лимит %.1f сек.", timeout.Seconds())
		captured := stderr.String()
		if captured != "" {
			captured = captured + "\n" + note
		} else {
			captured = note
		}
		return RunResult{
			Stdout:   stdout.String(),
			Stderr:   captured,
			ExitCode: TimeoutExitCode,
			TimedOut: true,
		}, nil
	}

	result := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// Interpreter missing, fork failure and the like.
		return RunResult{}, fmt.Errorf("sandbox run failed: %w", err)
	}

	return result, nil
}
