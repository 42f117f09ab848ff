package formatter

import (
	"strings"
	"time"

	"github.com/shinji-kodama/mdpipe/internal/language"
)

// DefaultTool is the built-in formatter suite invocation. mdsf reads a
// Markdown document on stdin and writes the formatted document to
// stdout, dispatching each fenced block to the right language tool.
const DefaultTool = "mdsf format --stdin"

// DefaultTimeout bounds each external invocation unless configured
// otherwise.
const DefaultTimeout = 30 * time.Second

// ConfigPlaceholder marks where the formatter-suite config file path is
// interpolated into a command string. The path itself is opaque to
// mdpipe — it is the invoked tool's configuration, merely passed along.
const ConfigPlaceholder = "{config}"

// Invocation is the immutable per-run formatting policy, constructed
// once from merged configuration before any block is processed.
type Invocation struct {
	// Tool is the formatter suite command used for every language that
	// has no override. Content is fence-wrapped for it.
	Tool string

	// ToolConfigPath is the optional path to the suite's own config
	// file, interpolated via {config} or appended as `--config <path>`.
	ToolConfigPath string

	// Overrides maps canonical keys to user-supplied commands that
	// receive the raw block content on stdin.
	Overrides map[language.Key]string

	// Timeout bounds each external invocation.
	Timeout time.Duration

	// Enabled is the language allow-list; empty means all languages.
	Enabled map[language.Key]struct{}

	// FailOnError escalates any formatter failure into aborting the
	// whole run instead of falling back to the original content.
	FailOnError bool
}

// CommandFor returns the shell command to run for the given canonical
// key and whether the block content must be fence-wrapped for it
// (true for the suite path, false for overrides).
func (inv Invocation) CommandFor(key language.Key) (command string, wrap bool) {
	if override, ok := inv.Overrides[key]; ok && strings.TrimSpace(override) != "" {
		return interpolateConfig(override, inv.ToolConfigPath), false
	}

	tool := inv.Tool
	if tool == "" {
		tool = DefaultTool
	}
	if strings.Contains(tool, ConfigPlaceholder) {
		return interpolateConfig(tool, inv.ToolConfigPath), true
	}
	if inv.ToolConfigPath != "" {
		tool += " --config " + shellQuote(inv.ToolConfigPath)
	}
	return tool, true
}

// interpolateConfig substitutes the {config} placeholder with the
// shell-quoted config path. With no path configured the placeholder
// collapses to nothing, leaving a well-formed command.
func interpolateConfig(command, configPath string) string {
	if !strings.Contains(command, ConfigPlaceholder) {
		return command
	}
	if configPath == "" {
		cleaned := strings.ReplaceAll(command, ConfigPlaceholder, "")
		return strings.Join(strings.Fields(cleaned), " ")
	}
	return strings.ReplaceAll(command, ConfigPlaceholder, shellQuote(configPath))
}

// shellQuote wraps s in single quotes for safe use inside an `sh -c`
// string. Embedded single quotes use the standard '\'' escape.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// wrapFence turns block content into a minimal one-block Markdown
// document for the formatter suite: the suite only formats fenced
// blocks, so the fence must be reconstructed around the content.
func wrapFence(content string, key language.Key) string {
	return "```" + key.String() + "\n" + content + "\n```\n"
}

// unwrapFence extracts the block content back out of the suite's
// formatted one-block document, dropping the opening and closing fence
// lines. It mirrors wrapFence and tolerates surrounding blank lines the
// tool may add.
func unwrapFence(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.HasPrefix(lines[n-1], "```") {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}
