// Package engine is the host document side of mdpipe: it parses a
// Markdown document, feeds every fenced code block to the code-block
// processor, and splices the results back into the source.
//
// The engine deliberately does not re-render the document from its AST.
// It uses goldmark only to locate fenced code blocks, then performs
// byte-range splicing on the original source: every byte outside a
// changed block body — fences, info strings, indentation, list markers,
// block quotes, prose — is copied through untouched. A block whose
// replacement equals its original content is not spliced at all, which
// makes the idempotence guarantee structural rather than best-effort.
//
// The pre hook runs once on the raw input before parsing; the post hook
// runs once on the final spliced text. YAML front matter is split off
// before parsing so the Markdown parser never sees it.
package engine
