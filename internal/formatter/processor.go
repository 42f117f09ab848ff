package formatter

import (
	"context"
	"fmt"
	"strings"

	"github.com/shinji-kodama/mdpipe/internal/language"
	"github.com/shinji-kodama/mdpipe/internal/model"
	"github.com/shinji-kodama/mdpipe/internal/runner"
)

// Processor formats individual code blocks through external commands.
// It is constructed once per run with an immutable Invocation and holds
// no per-block state, so blocks may be processed from any call site.
type Processor struct {
	runner runner.Runner
	inv    Invocation
	warnf  model.Warnf
}

// NewProcessor creates a Processor. warnf receives one diagnostic per
// fallback; a nil warnf discards diagnostics (tests that assert on
// outcomes instead of messages pass nil).
func NewProcessor(r runner.Runner, inv Invocation, warnf model.Warnf) *Processor {
	if warnf == nil {
		warnf = func(string, ...interface{}) {}
	}
	return &Processor{runner: r, inv: inv, warnf: warnf}
}

// Process runs one block through the formatting pipeline and returns
// the replacement content decision.
//
// The error is non-nil only when the block reaches the Aborted outcome
// (fail-on-error configured); it is then a *model.CLIError carrying
// ExitFormatterFailed. All other failures are recoverable: the result
// carries the original content and the FellBack outcome.
func (p *Processor) Process(ctx context.Context, block model.CodeBlock) (model.BlockResult, error) {
	// Unknown or disabled languages pass through without any invocation.
	// This is the common path for prose-adjacent fences (mermaid,
	// console transcripts, untagged blocks), not an error.
	key, ok := language.Resolve(block.Info)
	if !ok || !language.IsEnabled(key, p.inv.Enabled) {
		return model.BlockResult{Content: block.Content, Outcome: model.OutcomePassThrough}, nil
	}

	// Empty blocks have nothing to format and some tools choke on
	// empty input, so they pass through as well.
	if block.Content == "" {
		return model.BlockResult{Content: block.Content, Outcome: model.OutcomePassThrough}, nil
	}

	command, wrap := p.inv.CommandFor(key)
	input := block.Content
	if wrap {
		input = wrapFence(block.Content, key)
	}

	result := p.runner.Run(ctx, command, input, p.inv.Timeout)

	if kind, failed := result.Classify(); failed {
		return p.fallBack(block, key, command, kind, result.Stderr)
	}

	formatted := result.Stdout
	if wrap {
		formatted = unwrapFence(formatted)
	}
	// Trim exactly one trailing newline: tools conventionally terminate
	// their output with one, and the engine re-adds it when splicing.
	// Trimming more would eat intentional trailing blank lines;
	// trimming none would compound a blank line on every run and break
	// idempotence.
	formatted = strings.TrimSuffix(formatted, "\n")

	if formatted == "" {
		return p.fallBack(block, key, command, model.FailureEmptyResult, result.Stderr)
	}

	return model.BlockResult{Content: formatted, Outcome: model.OutcomeAccepted}, nil
}

// fallBack applies the failure policy: abort under fail-on-error,
// otherwise keep the original content and emit one diagnostic.
func (p *Processor) fallBack(block model.CodeBlock, key language.Key, command string, kind model.FailureKind, stderr string) (model.BlockResult, error) {
	excerpt := model.ExcerptStderr(stderr)

	if p.inv.FailOnError {
		msg := fmt.Sprintf("formatter for %s failed (%s) at line %d: %s", key, kind, block.Line, command)
		err := model.WrapCLIError(model.ExitFormatterFailed, msg, fmt.Errorf("%s", stderrOr(excerpt, kind)))
		return model.BlockResult{
			Content: block.Content,
			Outcome: model.OutcomeAborted,
			Failure: kind,
			Stderr:  excerpt,
		}, err
	}

	if excerpt != "" {
		p.warnf("%s block at line %d left unchanged (%s): %s", key, block.Line, kind, excerpt)
	} else {
		p.warnf("%s block at line %d left unchanged (%s): %s", key, block.Line, kind, command)
	}

	return model.BlockResult{
		Content: block.Content,
		Outcome: model.OutcomeFellBack,
		Failure: kind,
		Stderr:  excerpt,
	}, nil
}

// stderrOr substitutes the failure kind when a command died without
// writing anything to stderr, so the wrapped error is never empty.
func stderrOr(excerpt string, kind model.FailureKind) string {
	if excerpt == "" {
		return kind.String()
	}
	return excerpt
}
