package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCommandResult_Success verifies the success predicate across the
// result shapes the runner can produce.
func TestCommandResult_Success(t *testing.T) {
	tests := []struct {
		name   string
		result CommandResult
		want   bool
	}{
		{"clean exit", CommandResult{Exited: true, ExitCode: 0}, true},
		{"nonzero exit", CommandResult{Exited: true, ExitCode: 1}, false},
		{"timeout", CommandResult{TimedOut: true}, false},
		{"launch failure", CommandResult{Exited: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Success())
		})
	}
}

// TestCommandResult_Classify verifies that each failure shape maps to
// its stable, user-facing failure kind.
func TestCommandResult_Classify(t *testing.T) {
	tests := []struct {
		name   string
		result CommandResult
		want   FailureKind
	}{
		{"timeout", CommandResult{TimedOut: true}, FailureTimeout},
		{"launch failure", CommandResult{Exited: false, Stderr: "not found"}, FailureLaunch},
		{"nonzero exit", CommandResult{Exited: true, ExitCode: 2}, FailureNonZeroExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, failed := tt.result.Classify()
			require.True(t, failed, "result should classify as a failure")
			assert.Equal(t, tt.want, kind)
			assert.True(t, kind.IsValid())
		})
	}

	// A successful result has no failure kind.
	_, failed := CommandResult{Exited: true, ExitCode: 0}.Classify()
	assert.False(t, failed, "clean exit should not classify as a failure")
}

// TestBlockOutcome_IsValid verifies the terminal-state enum accepts its
// defined values and rejects arbitrary strings.
func TestBlockOutcome_IsValid(t *testing.T) {
	for _, o := range []BlockOutcome{OutcomePassThrough, OutcomeAccepted, OutcomeFellBack, OutcomeAborted} {
		assert.True(t, o.IsValid(), "outcome %q should be valid", o)
	}
	assert.False(t, BlockOutcome("invoking").IsValid(),
		"non-terminal states must not be representable as outcomes")
}

// TestExcerptStderr verifies that diagnostics only ever carry a single
// bounded line of command stderr.
func TestExcerptStderr(t *testing.T) {
	assert.Equal(t, "boom", ExcerptStderr("boom\n"))
	assert.Equal(t, "line one ...", ExcerptStderr("line one\nline two\nline three"))
	assert.Equal(t, "", ExcerptStderr("   \n  "))

	long := strings.Repeat("x", 500)
	got := ExcerptStderr(long)
	assert.True(t, strings.HasSuffix(got, " ..."))
	assert.LessOrEqual(t, len(got), 204, "excerpt should be capped")
}

// TestCLIError verifies message formatting, unwrapping, and that
// errors.As can recover the exit code from a wrapped chain.
func TestCLIError(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := WrapCLIError(ExitHookFailed, "post-command failed", underlying)

	assert.Equal(t, "post-command failed: exit status 1", err.Error())
	assert.Equal(t, underlying, err.Unwrap())

	// A CLIError wrapped further up the stack must still expose its code.
	wrapped := fmt.Errorf("formatting README.md: %w", err)
	var cliErr *CLIError
	require.True(t, errors.As(wrapped, &cliErr))
	assert.Equal(t, ExitHookFailed, cliErr.Code)

	// Without an underlying error, only the message appears.
	bare := NewCLIError(ExitConfigError, "timeout must be positive")
	assert.Equal(t, "timeout must be positive", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
