package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/shinji-kodama/mdpipe/internal/model"
)

// waitDelay bounds how long Run waits for I/O after the process is
// killed on timeout. Without it, a grandchild process inheriting the
// stdout pipe could keep Wait blocked past the deadline.
const waitDelay = 2 * time.Second

// Runner abstracts shell command execution so the code-block processor
// and the hook pipeline can be tested with fakes that count calls.
type Runner interface {
	// Run executes command via the shell, feeding input on stdin, and
	// waits up to timeout. It never returns an error: launch failures
	// and timeouts are encoded in the CommandResult.
	Run(ctx context.Context, command, input string, timeout time.Duration) model.CommandResult
}

// ShellRunner executes commands on the local host via `sh -c`.
//
// It is stateless — the struct exists as a receiver to satisfy Runner
// and to allow future extension (e.g., a configurable shell) without
// breaking callers.
type ShellRunner struct{}

// NewShellRunner creates a new ShellRunner.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

// Run implements Runner.
//
// The result encodes one of four shapes:
//   - success: Exited=true, ExitCode=0
//   - failure: Exited=true, ExitCode!=0
//   - timeout: TimedOut=true, exit code absent
//   - launch failure: TimedOut=false, exit code absent, OS error in Stderr
func (r *ShellRunner) Run(ctx context.Context, command, input string, timeout time.Duration) model.CommandResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(input)

	// Capture stdout and stderr separately: stdout is the candidate
	// replacement text, stderr feeds diagnostics. Mixing them would
	// corrupt formatted output whenever a tool logs warnings.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	// On Unix this puts the command in its own process group and makes
	// context cancellation kill the whole group.
	setProcessGroup(cmd)

	err := cmd.Run()

	result := model.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		result.Exited = true
		return result
	}

	// The deadline firing takes precedence over whatever error the
	// killed process produced (typically "signal: killed").
	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.Exited = true
		result.ExitCode = exitErr.ExitCode()
		return result
	}

	// Launch failure: the process never produced an exit status.
	// Surface the OS error through Stderr so callers have one place
	// to look, preserving any partial stderr the shell may have written.
	if result.Stderr == "" {
		result.Stderr = err.Error()
	} else {
		result.Stderr += "\n" + err.Error()
	}
	return result
}
