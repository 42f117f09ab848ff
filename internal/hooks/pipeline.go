package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/shinji-kodama/mdpipe/internal/model"
	"github.com/shinji-kodama/mdpipe/internal/runner"
)

// Config is the immutable hook policy for one run.
type Config struct {
	// PreCommand runs against the raw input text before parsing.
	// Empty means no pre hook.
	PreCommand string

	// PostCommand runs against the final rendered text. Empty means
	// no post hook.
	PostCommand string

	// Timeout bounds each hook invocation.
	Timeout time.Duration

	// Strict escalates hook failures into aborting the run instead of
	// passing the text through unchanged.
	Strict bool
}

// Pipeline applies the pre/post hooks around a document format
// operation. A zero-command config makes both stages pure pass-through
// with zero observable effect — the runner is never invoked.
type Pipeline struct {
	runner runner.Runner
	cfg    Config
	warnf  model.Warnf
}

// NewPipeline creates a Pipeline. A nil warnf discards diagnostics.
func NewPipeline(r runner.Runner, cfg Config, warnf model.Warnf) *Pipeline {
	if warnf == nil {
		warnf = func(string, ...interface{}) {}
	}
	return &Pipeline{runner: r, cfg: cfg, warnf: warnf}
}

// ApplyPre runs the pre-command against the raw document text.
func (p *Pipeline) ApplyPre(ctx context.Context, raw string) (string, error) {
	return p.apply(ctx, "pre-command", p.cfg.PreCommand, raw)
}

// ApplyPost runs the post-command against the rendered document text.
func (p *Pipeline) ApplyPost(ctx context.Context, rendered string) (string, error) {
	return p.apply(ctx, "post-command", p.cfg.PostCommand, rendered)
}

// apply is the shared stage implementation. On success the command's
// stdout replaces the text verbatim — unlike the block processor there
// is no newline trimming, because hooks own the whole document and any
// normalization they perform is theirs to keep.
func (p *Pipeline) apply(ctx context.Context, stage, command, text string) (string, error) {
	if command == "" {
		return text, nil
	}

	result := p.runner.Run(ctx, command, text, p.cfg.Timeout)

	if kind, failed := result.Classify(); failed {
		excerpt := model.ExcerptStderr(result.Stderr)

		if p.cfg.Strict {
			msg := fmt.Sprintf("%s failed (%s): %s", stage, kind, command)
			var underlying error
			if excerpt != "" {
				underlying = fmt.Errorf("%s", excerpt)
			}
			return "", model.WrapCLIError(model.ExitHookFailed, msg, underlying)
		}

		if excerpt != "" {
			p.warnf("%s skipped (%s): %s: %s", stage, kind, command, excerpt)
		} else {
			p.warnf("%s skipped (%s): %s", stage, kind, command)
		}
		return text, nil
	}

	return result.Stdout, nil
}
