package engine

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/shinji-kodama/mdpipe/internal/hooks"
	"github.com/shinji-kodama/mdpipe/internal/model"
)

// BlockProcessor is the engine's view of the code-block pipeline.
// Defined as an interface so engine tests can script outcomes without
// spawning processes.
type BlockProcessor interface {
	Process(ctx context.Context, block model.CodeBlock) (model.BlockResult, error)
}

// Report summarizes one document format run for the CLI summary.
type Report struct {
	// Blocks is the number of fenced code blocks handed to the processor.
	Blocks int `json:"blocks"`

	// Formatted counts blocks whose external formatter output was accepted.
	Formatted int `json:"formatted"`

	// PassedThrough counts blocks left alone (unknown/disabled language,
	// empty content).
	PassedThrough int `json:"passedThrough"`

	// FellBack counts blocks kept as-is after a formatter failure.
	FellBack int `json:"fellBack"`

	// Changed reports whether the output differs from the input.
	Changed bool `json:"changed"`
}

// Engine formats whole documents. It is constructed once per run and
// is safe to reuse across documents: all per-document state lives on
// the stack of FormatDocument.
type Engine struct {
	proc                 BlockProcessor
	hooks                *hooks.Pipeline
	normalizeFrontMatter bool
}

// New creates an Engine wiring the code-block processor and the hook
// pipeline together.
func New(proc BlockProcessor, hookPipeline *hooks.Pipeline, normalizeFrontMatter bool) *Engine {
	return &Engine{proc: proc, hooks: hookPipeline, normalizeFrontMatter: normalizeFrontMatter}
}

// FormatDocument runs the full pipeline over one document:
// pre hook → front matter split → per-block formatting → post hook.
//
// On error (strict hook failure or fail-on-error formatter failure) no
// output is produced; the returned error is a *model.CLIError carrying
// the appropriate exit code.
func (e *Engine) FormatDocument(ctx context.Context, source []byte) ([]byte, Report, error) {
	var report Report

	// The pre hook sees the raw text, front matter included, exactly
	// once and strictly before any parsing.
	preprocessed, err := e.hooks.ApplyPre(ctx, string(source))
	if err != nil {
		return nil, report, err
	}

	meta, body := SplitFrontMatter([]byte(preprocessed))
	if e.normalizeFrontMatter && meta != nil {
		normalized, nerr := NormalizeFrontMatter(meta)
		if nerr == nil {
			meta = normalized
		}
		// SplitFrontMatter only returns YAML that parsed; a normalize
		// failure here would mean the document changed under us, and
		// keeping the original bytes is the safe answer.
	}

	// Blocks are located within the body, so their line numbers need
	// the front matter's lines added back to match the document.
	metaLines := bytes.Count(meta, []byte("\n"))
	formattedBody, err := e.formatBlocks(ctx, body, metaLines, &report)
	if err != nil {
		return nil, report, err
	}

	rendered := make([]byte, 0, len(meta)+len(formattedBody))
	rendered = append(rendered, meta...)
	rendered = append(rendered, formattedBody...)

	// The post hook sees the fully rendered text exactly once; it must
	// never observe intermediate per-block state.
	final, err := e.hooks.ApplyPost(ctx, string(rendered))
	if err != nil {
		return nil, report, err
	}

	report.Changed = final != string(source)
	return []byte(final), report, nil
}

// formatBlocks locates every fenced code block in document order and
// splices accepted replacements into the source bytes.
func (e *Engine) formatBlocks(ctx context.Context, source []byte, lineOffset int, report *Report) ([]byte, error) {
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(source))

	var fenced []*ast.FencedCodeBlock
	// The walk callback never returns an error, so ast.Walk cannot fail.
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			fenced = append(fenced, fcb)
		}
		return ast.WalkContinue, nil
	})

	if len(fenced) == 0 {
		return source, nil
	}

	var out bytes.Buffer
	last := 0
	for _, fcb := range fenced {
		reg, block, ok := extractBlock(source, fcb)
		if !ok {
			// A fence with no content lines has nothing to format and
			// no region to splice.
			continue
		}
		block.Line += lineOffset

		report.Blocks++
		result, err := e.proc.Process(ctx, block)
		if err != nil {
			return nil, err
		}

		switch result.Outcome {
		case model.OutcomeAccepted:
			report.Formatted++
		case model.OutcomePassThrough:
			report.PassedThrough++
		case model.OutcomeFellBack:
			report.FellBack++
		}

		// Identical content means the source region already holds the
		// exact bytes we would write; leaving it untouched is what
		// makes format(format(D)) == format(D) hold byte for byte.
		if result.Content == block.Content {
			continue
		}

		out.Write(source[last:reg.start])
		out.WriteString(reindent(result.Content, block.FenceIndent, reg.endsWithNewline))
		last = reg.stop
	}
	out.Write(source[last:])

	return out.Bytes(), nil
}

// blockRegion is the byte range of a block's content lines within the
// source, from the start of the first content line's text (after any
// container prefix) to the end of the last content line.
type blockRegion struct {
	start, stop     int
	endsWithNewline bool
}

// extractBlock converts a goldmark fenced code block node into the
// model.CodeBlock handed to the processor, plus the splice region.
// ok is false for blocks without content lines.
func extractBlock(source []byte, fcb *ast.FencedCodeBlock) (blockRegion, model.CodeBlock, bool) {
	lines := fcb.Lines()
	if lines.Len() == 0 {
		return blockRegion{}, model.CodeBlock{}, false
	}

	first := lines.At(0)
	lastSeg := lines.At(lines.Len() - 1)

	// Content lines come from the parser with the fence indentation
	// already stripped (Value applies tab-expansion padding), which is
	// exactly the "original indentation stripped" form formatters need.
	var content strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		content.Write(seg.Value(source))
	}
	body := strings.TrimSuffix(content.String(), "\n")

	// The container prefix (fence indentation, plus list or block-quote
	// markers' continuation whitespace) is read off the opening fence
	// line, which always carries it. The first content line cannot be
	// used: inside a list item it may be blank and carry no prefix of
	// its own.
	lineStart := bytes.LastIndexByte(source[:first.Start], '\n') + 1
	prefix := string(source[lineStart:first.Start])
	if lineStart > 0 {
		fenceStart := bytes.LastIndexByte(source[:lineStart-1], '\n') + 1
		fenceLine := source[fenceStart : lineStart-1]
		if idx := bytes.IndexAny(fenceLine, "`~"); idx >= 0 {
			prefix = string(fenceLine[:idx])
		}
	}

	info := ""
	if fcb.Info != nil {
		info = string(fcb.Info.Segment.Value(source))
	}

	// The region starts at the physical beginning of the first content
	// line so the replacement owns every line in full, prefix included.
	reg := blockRegion{
		start:           lineStart,
		stop:            lastSeg.Stop,
		endsWithNewline: lastSeg.Stop > 0 && source[lastSeg.Stop-1] == '\n',
	}
	block := model.CodeBlock{
		Info:        info,
		Content:     body,
		FenceIndent: prefix,
		// The opening fence is the line immediately above the first
		// content line; counting newlines gives its 1-based number.
		Line: bytes.Count(source[:lineStart], []byte("\n")),
	}
	return reg, block, true
}

// reindent prepares replacement content for splicing: every line gets
// the container prefix (the splice region starts at the physical line
// start, so the source contributes none of it). Blank lines get the
// prefix trimmed of trailing whitespace so no line ends in stray
// spaces — inside a block quote that still leaves the required ">".
func reindent(content, prefix string, endsWithNewline bool) string {
	blankPrefix := strings.TrimRight(prefix, " \t")

	var b strings.Builder
	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if line == "" {
			b.WriteString(blankPrefix)
		} else {
			b.WriteString(prefix)
		}
		b.WriteString(line)
	}
	if endsWithNewline {
		b.WriteByte('\n')
	}
	return b.String()
}
