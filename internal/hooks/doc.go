// Package hooks runs the document-level pre and post shell commands.
//
// The pre-command receives the raw input text before any Markdown
// parsing; the post-command receives the fully rendered output text.
// Each runs at most once per document through the shared command
// runner, with the same stdin-in/stdout-out convention as the
// per-block formatters.
//
// Failure policy is independent from the code-block pipeline: strict
// mode turns any hook failure (timeout, nonzero exit, launch failure)
// into a fatal error that aborts the whole run; lenient mode (the
// default) passes the text through unchanged and emits one diagnostic
// naming the failure kind and the command.
package hooks
