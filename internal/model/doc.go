// Package model defines the domain types and value objects for the
// mdpipe CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (CodeBlock, CommandResult, BlockResult, etc.) are transient:
// they are produced while a single document is being formatted and consumed
// immediately — nothing in this tool is persisted between runs.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
