// Package formatter orchestrates the per-block external formatting
// pipeline: resolve the block's language, build the external command,
// invoke it through the runner, and decide whether to accept the result
// or fall back to the original content.
//
// Two invocation styles exist:
//   - the default formatter suite (mdsf) receives the block re-wrapped
//     as a one-block Markdown document on stdin and returns the same,
//     which this package unwraps again;
//   - per-language override commands receive the raw block content on
//     stdin and return the replacement directly.
//
// The processor's own obligation toward idempotence is to add no
// transformation of its own beyond trimming a single trailing newline
// from accepted output; everything else is the external tool's output,
// verbatim.
package formatter
