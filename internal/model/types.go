package model

import (
	"fmt"
	"strings"
)

// CodeBlock is one fenced code block extracted from a Markdown document
// by the host engine. It is created per block during a format run and
// consumed exactly once by the code-block processor.
type CodeBlock struct {
	// Info is the fence info string exactly as written in the source,
	// e.g. "PYTHON", "py", "go title=example". Language resolution
	// (lower-casing, alias mapping, attribute stripping) happens later,
	// in the language package — this field stays raw so diagnostics can
	// show what the author actually wrote.
	Info string

	// Content is the block body with the fence indentation already
	// stripped, lines joined with "\n", and no trailing newline.
	// Whatever the processor returns replaces exactly this text; the
	// engine owns re-indentation and the final newline.
	Content string

	// FenceIndent is the leading whitespace of the opening fence line.
	// The engine uses it to re-indent replacement content so blocks
	// nested in lists or block quotes keep their position.
	FenceIndent string

	// Line is the 1-based source line of the opening fence, used only
	// for diagnostics.
	Line int
}

// CommandResult is the outcome of one external command invocation.
// It is produced by the command runner and consumed immediately by the
// caller; it is never retained across invocations.
type CommandResult struct {
	// ExitCode is the process exit status. Only meaningful when Exited
	// is true.
	ExitCode int

	// Exited reports whether the process ran to completion and produced
	// an exit status. It is false both for launch failures (command not
	// found, permission denied) and for timeouts — the cases the
	// formatting policy treats as "exit code absent".
	Exited bool

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error. For launch failures the
	// underlying OS error text is placed here so callers have a single
	// place to look for failure details.
	Stderr string

	// TimedOut reports whether the invocation exceeded its deadline and
	// the process (group) was terminated.
	TimedOut bool
}

// Success reports whether the command ran to completion with exit code 0.
func (r CommandResult) Success() bool {
	return r.Exited && r.ExitCode == 0 && !r.TimedOut
}

// Classify maps a failed CommandResult to its FailureKind.
// The second return value is false when the result is a success and
// there is no failure to classify.
func (r CommandResult) Classify() (FailureKind, bool) {
	switch {
	case r.TimedOut:
		return FailureTimeout, true
	case !r.Exited:
		return FailureLaunch, true
	case r.ExitCode != 0:
		return FailureNonZeroExit, true
	default:
		return "", false
	}
}

// FailureKind names the way an external command invocation failed.
// These values appear verbatim in diagnostics, so they are stable,
// user-facing identifiers.
type FailureKind string

const (
	// FailureTimeout indicates the command exceeded the configured deadline.
	FailureTimeout FailureKind = "timeout"

	// FailureNonZeroExit indicates the command ran but reported failure.
	FailureNonZeroExit FailureKind = "nonzero-exit"

	// FailureLaunch indicates the command could not be started at all
	// (not found, permission denied).
	FailureLaunch FailureKind = "launch-failure"

	// FailureEmptyResult indicates the command succeeded but produced no
	// usable output for non-empty input. Treated as a failure to guard
	// against formatters that print nothing on a benign warning.
	FailureEmptyResult FailureKind = "empty-result"
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	return string(k)
}

// IsValid checks whether the FailureKind value is one of the predefined
// failure kinds.
func (k FailureKind) IsValid() bool {
	switch k {
	case FailureTimeout, FailureNonZeroExit, FailureLaunch, FailureEmptyResult:
		return true
	default:
		return false
	}
}

// BlockOutcome represents the terminal state of one code block after
// processing. The per-block state machine is:
//
//	Unresolved → {PassThrough | Invoking} → {Accepted | FellBack | Aborted}
//
// Only the terminal states are observable; Unresolved and Invoking exist
// transiently inside the processor.
type BlockOutcome string

const (
	// OutcomePassThrough means the block's language was unknown or not
	// enabled, so the content was returned unchanged without invoking
	// any external command. This is the common non-error path.
	OutcomePassThrough BlockOutcome = "pass-through"

	// OutcomeAccepted means the external formatter succeeded and its
	// output replaced the original content (the output may still equal
	// the original byte for byte).
	OutcomeAccepted BlockOutcome = "accepted"

	// OutcomeFellBack means the external formatter failed and the
	// original content was kept, with a non-fatal diagnostic emitted.
	OutcomeFellBack BlockOutcome = "fell-back"

	// OutcomeAborted means the external formatter failed while
	// fail-on-error was configured; the whole run aborts.
	OutcomeAborted BlockOutcome = "aborted"
)

// String returns the string representation of BlockOutcome.
func (o BlockOutcome) String() string {
	return string(o)
}

// IsValid checks whether the BlockOutcome value is one of the predefined
// terminal states.
func (o BlockOutcome) IsValid() bool {
	switch o {
	case OutcomePassThrough, OutcomeAccepted, OutcomeFellBack, OutcomeAborted:
		return true
	default:
		return false
	}
}

// BlockResult is what the code-block processor hands back to the host
// engine for one block.
type BlockResult struct {
	// Content is the text to render in place of the original block body.
	// For PassThrough and FellBack this equals the original content.
	Content string

	// Outcome is the terminal state the block reached.
	Outcome BlockOutcome

	// Failure is set when Outcome is FellBack or Aborted and names why
	// the external command's result was not accepted.
	Failure FailureKind

	// Stderr is an excerpt of the failed command's standard error,
	// included in diagnostics. Empty on the success paths.
	Stderr string
}

// Warnf is the diagnostic sink shared by the processor and the hook
// pipeline. Non-fatal failures are never silently dropped: every
// fallback emits exactly one Warnf call. The CLI injects an
// implementation that writes to stderr; tests inject recorders.
type Warnf func(format string, args ...interface{})

// ExcerptStderr trims and truncates command stderr for inclusion in a
// one-line diagnostic. Multi-line stderr keeps only the first line so
// fallback warnings stay readable; the limit guards against tools that
// dump usage screens on failure.
func ExcerptStderr(stderr string) string {
	const maxLen = 200

	s := strings.TrimSpace(stderr)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	if len(s) > maxLen {
		s = s[:maxLen] + " ..."
	}
	return s
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a run.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the merged configuration was invalid
	// (bad timeout, unknown language in the allow-list, unreadable file).
	ExitConfigError ExitCode = 2

	// ExitFormatterFailed indicates a code-block formatter failed while
	// fail-on-error was set.
	ExitFormatterFailed ExitCode = 3

	// ExitHookFailed indicates a pre/post hook command failed while
	// strict hooks were enabled.
	ExitHookFailed ExitCode = 4

	// ExitCheckFailed indicates --check mode found files that would be
	// reformatted.
	ExitCheckFailed ExitCode = 5

	// ExitInputNotFound indicates an input file does not exist or could
	// not be read.
	ExitInputNotFound ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
