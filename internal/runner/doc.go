// Package runner executes external shell commands with bounded timeouts.
//
// This is the single process boundary of mdpipe: both the per-block code
// formatters and the document-level pre/post hooks go through Runner.Run.
// Each invocation is `sh -c <command>` with the text fed over stdin and
// stdout/stderr captured — the common "format via stdin" CLI convention.
//
// Design decisions:
//   - Commands are opaque shell strings, not argv vectors. Users write
//     them exactly as they would in a terminal ("black -q -",
//     "mdsf format --stdin"), and the shell owns quoting and PATH lookup.
//   - Each command runs in its own process group so a timeout can kill
//     the whole tree (formatter suites routinely spawn child processes).
//     The group handling is Unix-specific and lives behind build tags.
//   - The runner holds no state across calls and performs no caching or
//     process reuse; concurrent calls from multiple call sites are safe.
//   - Failures are data, not errors: Run always returns a CommandResult
//     and the accept/fallback decision belongs to the caller.
package runner
