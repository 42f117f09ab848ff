package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/mdpipe/internal/hooks"
	"github.com/shinji-kodama/mdpipe/internal/language"
	"github.com/shinji-kodama/mdpipe/internal/model"
)

// scriptProcessor is a scripted BlockProcessor that records every block
// it receives.
type scriptProcessor struct {
	transform func(model.CodeBlock) model.BlockResult
	err       error
	blocks    []model.CodeBlock
}

func (s *scriptProcessor) Process(_ context.Context, b model.CodeBlock) (model.BlockResult, error) {
	s.blocks = append(s.blocks, b)
	if s.err != nil {
		return model.BlockResult{Content: b.Content, Outcome: model.OutcomeAborted}, s.err
	}
	return s.transform(b), nil
}

// passthrough scripts the processor's no-op path for every block.
func passthrough() *scriptProcessor {
	return &scriptProcessor{transform: func(b model.CodeBlock) model.BlockResult {
		return model.BlockResult{Content: b.Content, Outcome: model.OutcomePassThrough}
	}}
}

// pythonSpacer scripts an idempotent formatter that rewrites "x=1" to
// "x = 1" in python blocks and passes everything else through.
func pythonSpacer() *scriptProcessor {
	return &scriptProcessor{transform: func(b model.CodeBlock) model.BlockResult {
		if key, ok := language.Resolve(b.Info); !ok || key != language.Python {
			return model.BlockResult{Content: b.Content, Outcome: model.OutcomePassThrough}
		}
		formatted := strings.ReplaceAll(b.Content, "x=1", "x = 1")
		return model.BlockResult{Content: formatted, Outcome: model.OutcomeAccepted}
	}}
}

// fakeHookRunner scripts the hook pipeline's command results.
type fakeHookRunner struct {
	result model.CommandResult
	calls  int
	inputs []string
}

func (f *fakeHookRunner) Run(_ context.Context, _, input string, _ time.Duration) model.CommandResult {
	f.calls++
	f.inputs = append(f.inputs, input)
	return f.result
}

// noHooks builds a pipeline with no commands configured; the nil runner
// documents that the process boundary is unreachable.
func noHooks() *hooks.Pipeline {
	return hooks.NewPipeline(nil, hooks.Config{Timeout: time.Second}, nil)
}

// TestFormatDocument_ReplacesBlockContent covers the core scenario end
// to end: the block body is replaced, fence and info string stay
// untouched, the trailing newline is reconstructed.
func TestFormatDocument_ReplacesBlockContent(t *testing.T) {
	source := "# Title\n\n```python\nx=1\n```\n\ntrailing prose\n"
	e := New(pythonSpacer(), noHooks(), false)

	out, report, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, "# Title\n\n```python\nx = 1\n```\n\ntrailing prose\n", string(out))
	assert.Equal(t, 1, report.Blocks)
	assert.Equal(t, 1, report.Formatted)
	assert.True(t, report.Changed)
}

// TestFormatDocument_Idempotence verifies format(format(D)) == format(D)
// byte for byte.
func TestFormatDocument_Idempotence(t *testing.T) {
	source := "intro\n\n```python\nx=1\n```\n\n- list\n\n  ```python\n  x=1\n  ```\n\n- blank lead\n\n  ```python\n\n  x=1\n  ```\n"
	e := New(pythonSpacer(), noHooks(), false)

	first, _, err := e.FormatDocument(context.Background(), []byte(source))
	require.NoError(t, err)

	second, report, err := e.FormatDocument(context.Background(), first)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.False(t, report.Changed, "second run must be a no-op")
}

// TestFormatDocument_PassThroughIsByteIdentical verifies a document
// whose blocks all pass through is returned untouched.
func TestFormatDocument_PassThroughIsByteIdentical(t *testing.T) {
	source := "```mermaid\ngraph TD\n```\n\n```\nno tag\n```\n"
	proc := passthrough()
	e := New(proc, noHooks(), false)

	out, report, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, source, string(out))
	assert.Equal(t, 2, report.Blocks)
	assert.Equal(t, 2, report.PassedThrough)
	assert.False(t, report.Changed)
}

// TestFormatDocument_BlockExtraction verifies the shape of the blocks
// handed to the processor: raw info string, indent-stripped content,
// container prefix, fence line number.
func TestFormatDocument_BlockExtraction(t *testing.T) {
	source := "para\n\n- item\n\n  ```PYTHON extra=attr\n  x=1\n  y=2\n  ```\n"
	proc := passthrough()
	e := New(proc, noHooks(), false)

	_, _, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	require.Len(t, proc.blocks, 1)
	block := proc.blocks[0]
	assert.Equal(t, "PYTHON extra=attr", block.Info, "info string stays raw")
	assert.Equal(t, "x=1\ny=2", block.Content, "content is indent-stripped, no trailing newline")
	assert.Equal(t, "  ", block.FenceIndent)
	assert.Equal(t, 5, block.Line)
}

// TestFormatDocument_ListIndentationPreserved verifies replacement
// lines inside a list item are re-indented to the fence position.
func TestFormatDocument_ListIndentationPreserved(t *testing.T) {
	source := "- item\n\n  ```python\n  x=1\n  x=1\n  ```\n"
	e := New(pythonSpacer(), noHooks(), false)

	out, _, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, "- item\n\n  ```python\n  x = 1\n  x = 1\n  ```\n", string(out))
}

// TestFormatDocument_NestedBlockWithLeadingBlankLine verifies a
// list-nested block whose first content line is blank still re-indents
// every replacement line to the fence position. The blank line itself
// carries no container prefix, so the prefix must come from the fence
// line.
func TestFormatDocument_NestedBlockWithLeadingBlankLine(t *testing.T) {
	source := "- item\n\n  ```python\n\n  x=1\n  ```\n"
	proc := &scriptProcessor{transform: func(b model.CodeBlock) model.BlockResult {
		return model.BlockResult{Content: "a\nb", Outcome: model.OutcomeAccepted}
	}}
	e := New(proc, noHooks(), false)

	out, _, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	require.Len(t, proc.blocks, 1)
	assert.Equal(t, "  ", proc.blocks[0].FenceIndent,
		"prefix comes from the fence line, not the blank first content line")
	assert.Equal(t, "\nx=1", proc.blocks[0].Content)
	assert.Equal(t, "- item\n\n  ```python\n  a\n  b\n  ```\n", string(out),
		"replacement lines stay aligned with the fences")
}

// TestFormatDocument_BlankLinesGetNoTrailingWhitespace verifies blank
// lines in replacement content are not padded with indentation.
func TestFormatDocument_BlankLinesGetNoTrailingWhitespace(t *testing.T) {
	source := "- item\n\n  ```python\n  x=1\n  ```\n"
	proc := &scriptProcessor{transform: func(b model.CodeBlock) model.BlockResult {
		return model.BlockResult{Content: "a\n\nb", Outcome: model.OutcomeAccepted}
	}}
	e := New(proc, noHooks(), false)

	out, _, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, "- item\n\n  ```python\n  a\n\n  b\n  ```\n", string(out))
	assert.NotContains(t, string(out), " \n", "no line may end in stray spaces")
}

// TestFormatDocument_IndentedCodeUntouched verifies non-fenced
// (indented) code blocks are never handed to the processor.
func TestFormatDocument_IndentedCodeUntouched(t *testing.T) {
	source := "para\n\n    x=1\n    y=2\n\npara\n"
	proc := passthrough()
	e := New(proc, noHooks(), false)

	out, report, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, source, string(out))
	assert.Zero(t, report.Blocks)
	assert.Empty(t, proc.blocks)
}

// TestFormatDocument_MultipleBlocksMixedOutcomes verifies sibling
// blocks are independent: one falling back leaves the others formatted.
func TestFormatDocument_MixedOutcomes(t *testing.T) {
	source := "```python\nx=1\n```\n\n```go\nbroken(\n```\n"
	proc := &scriptProcessor{transform: func(b model.CodeBlock) model.BlockResult {
		if strings.HasPrefix(b.Info, "python") {
			return model.BlockResult{Content: "x = 1", Outcome: model.OutcomeAccepted}
		}
		return model.BlockResult{Content: b.Content, Outcome: model.OutcomeFellBack, Failure: model.FailureNonZeroExit}
	}}
	e := New(proc, noHooks(), false)

	out, report, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, "```python\nx = 1\n```\n\n```go\nbroken(\n```\n", string(out))
	assert.Equal(t, 2, report.Blocks)
	assert.Equal(t, 1, report.Formatted)
	assert.Equal(t, 1, report.FellBack)
}

// TestFormatDocument_AbortStopsRun verifies a processor abort
// propagates with no output.
func TestFormatDocument_AbortStopsRun(t *testing.T) {
	cliErr := model.NewCLIError(model.ExitFormatterFailed, "formatter for go failed")
	proc := &scriptProcessor{err: cliErr}
	e := New(proc, noHooks(), false)

	out, _, err := e.FormatDocument(context.Background(), []byte("```go\nx\n```\n"))

	require.Error(t, err)
	assert.Nil(t, out)
	var got *model.CLIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, model.ExitFormatterFailed, got.Code)
}

// TestFormatDocument_HookPassThrough verifies the hook pass-through
// property: with no commands configured, output equals the code-block
// path alone.
func TestFormatDocument_HookPassThrough(t *testing.T) {
	source := "```python\nx=1\n```\n"

	withHooks := New(pythonSpacer(), noHooks(), false)
	got, _, err := withHooks.FormatDocument(context.Background(), []byte(source))
	require.NoError(t, err)

	assert.Equal(t, "```python\nx = 1\n```\n", string(got),
		"an unconfigured hook pipeline introduces zero observable change")
}

// TestFormatDocument_PostHookSeesFinalText verifies ordering: the post
// hook receives the spliced document, not the raw input.
func TestFormatDocument_PostHookSeesFinalText(t *testing.T) {
	hookRunner := &fakeHookRunner{result: model.CommandResult{Exited: true, Stdout: "POSTED\n"}}
	pipeline := hooks.NewPipeline(hookRunner, hooks.Config{PostCommand: "post-tool", Timeout: time.Second}, nil)
	e := New(pythonSpacer(), pipeline, false)

	out, _, err := e.FormatDocument(context.Background(), []byte("```python\nx=1\n```\n"))

	require.NoError(t, err)
	assert.Equal(t, "POSTED\n", string(out), "post hook output is the final text")
	require.Equal(t, 1, hookRunner.calls, "post hook runs exactly once")
	assert.Equal(t, "```python\nx = 1\n```\n", hookRunner.inputs[0],
		"post hook must see the fully formatted document")
}

// TestFormatDocument_PreHookRunsBeforeParse verifies the pre hook's
// output is what gets parsed and formatted.
func TestFormatDocument_PreHookRunsBeforeParse(t *testing.T) {
	hookRunner := &fakeHookRunner{result: model.CommandResult{Exited: true, Stdout: "```python\nx=1\n```\n"}}
	pipeline := hooks.NewPipeline(hookRunner, hooks.Config{PreCommand: "pre-tool", Timeout: time.Second}, nil)
	e := New(pythonSpacer(), pipeline, false)

	out, report, err := e.FormatDocument(context.Background(), []byte("nothing here\n"))

	require.NoError(t, err)
	assert.Equal(t, "```python\nx = 1\n```\n", string(out))
	assert.Equal(t, 1, report.Blocks, "the block introduced by the pre hook was formatted")
	assert.Equal(t, "nothing here\n", hookRunner.inputs[0], "pre hook sees the raw input")
}

// TestFormatDocument_StrictPostFailureProducesNoOutput verifies the
// strict-abort property for the post stage.
func TestFormatDocument_StrictPostFailureProducesNoOutput(t *testing.T) {
	hookRunner := &fakeHookRunner{result: model.CommandResult{Exited: true, ExitCode: 1, Stderr: "hook broke"}}
	pipeline := hooks.NewPipeline(hookRunner, hooks.Config{PostCommand: "false", Strict: true, Timeout: time.Second}, nil)
	e := New(passthrough(), pipeline, false)

	out, _, err := e.FormatDocument(context.Background(), []byte("# doc\n"))

	require.Error(t, err)
	assert.Nil(t, out, "strict hook failure must not produce output")

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitHookFailed, cliErr.Code)
}

// TestFormatDocument_LineNumbersIncludeFrontMatter verifies block line
// numbers are document-absolute: the front matter lines stripped before
// parsing still count, so diagnostics point at the real fence line.
func TestFormatDocument_LineNumbersIncludeFrontMatter(t *testing.T) {
	source := "---\ntitle: Demo\n---\n\n```python\nx=1\n```\n"
	proc := passthrough()
	e := New(proc, noHooks(), false)

	_, _, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	require.Len(t, proc.blocks, 1)
	assert.Equal(t, 5, proc.blocks[0].Line, "opening fence sits on line 5 of the document")
}

// TestFormatDocument_FrontMatterPreserved verifies front matter is
// carried through untouched by default and its "---" fences are never
// mistaken for content.
func TestFormatDocument_FrontMatterPreserved(t *testing.T) {
	source := "---\ntitle: Demo\n---\n\n```python\nx=1\n```\n"
	e := New(pythonSpacer(), noHooks(), false)

	out, _, err := e.FormatDocument(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Demo\n---\n\n```python\nx = 1\n```\n", string(out))
}
