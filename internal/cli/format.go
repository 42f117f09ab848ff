// Package cli — format.go implements the "mdpipe format" command.
//
// The format command is the primary user-facing operation. It reads one
// or more Markdown files (or stdin), pipes every fenced code block
// through the configured formatter, runs the pre/post hooks, and writes
// the result back.
//
// Orchestration steps:
//  1. Merge configuration (flags, environment, config file, defaults)
//  2. Build the runner, block processor, hook pipeline, and engine
//  3. For each input: read, format, compare, write (or report in --check)
//  4. Output per-file results (text or JSON)
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mdpipe/internal/config"
	"github.com/shinji-kodama/mdpipe/internal/engine"
	"github.com/shinji-kodama/mdpipe/internal/formatter"
	"github.com/shinji-kodama/mdpipe/internal/hooks"
	"github.com/shinji-kodama/mdpipe/internal/model"
	"github.com/shinji-kodama/mdpipe/internal/runner"
)

// stdinName is the positional argument that selects stdin as input.
const stdinName = "-"

// formatFlags holds the flag values for the format command.
// These are bound to cobra flags in NewFormatCommand.
type formatFlags struct {
	stdout bool // --stdout: print results instead of rewriting in place
	check  bool // --check: report files that would change, exit 5 if any
}

// fileResult is the per-input outcome collected for the final report.
type fileResult struct {
	Name    string        `json:"name"`
	Changed bool          `json:"changed"`
	Report  engine.Report `json:"report"`
}

// NewFormatCommand creates the "format" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewFormatCommand() *cobra.Command {
	flags := &formatFlags{}

	cmd := &cobra.Command{
		Use:   "format [file...]",
		Short: "Format fenced code blocks in Markdown files",
		Long: `Format the fenced code blocks of one or more Markdown files in place.

With no arguments, or with "-", the document is read from stdin and the
result is written to stdout. Formatter failures fall back to the original
block content with a warning unless --fail-on-error is set.

Examples:
  mdpipe format README.md docs/guide.md
  mdpipe format --check README.md
  mdpipe format --language python --language go README.md
  cat notes.md | mdpipe format`,

		Args: cobra.ArbitraryArgs,

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd.Context(), cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.stdout, "stdout", false, "Write formatted output to stdout instead of rewriting files")
	cmd.Flags().BoolVar(&flags.check, "check", false, "Don't write; exit nonzero if any file would change")

	// Configuration flags. These are bound into viper by config.Load so
	// they participate in the flags > env > file > defaults merge; the
	// defaults declared here are placeholders the merge overrides.
	cmd.Flags().Int("timeout", 0, "Per-formatter timeout in seconds")
	cmd.Flags().Int("hook-timeout", 0, "Per-hook timeout in seconds (default: same as --timeout)")
	cmd.Flags().StringSlice("language", nil, "Only format these languages (repeatable; default: all)")
	cmd.Flags().Bool("fail-on-error", false, "Abort on the first formatter failure instead of falling back")
	cmd.Flags().String("tool", "", "Formatter suite command template")
	cmd.Flags().String("tool-config", "", "Path passed to the formatter suite's {config} placeholder")
	cmd.Flags().String("pre-command", "", "Shell command the raw document is piped through before formatting")
	cmd.Flags().String("post-command", "", "Shell command the final document is piped through after formatting")
	cmd.Flags().Bool("strict-hooks", false, "Abort the run when a hook fails")
	cmd.Flags().Bool("normalize-front-matter", false, "Re-encode leading YAML front matter in canonical form")

	return cmd
}

// runFormat is the main orchestration function for the format command.
func runFormat(ctx context.Context, cmd *cobra.Command, args []string, flags *formatFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	cfg, err := config.Load(cfgFile, cwd, cmd.Flags())
	if err != nil {
		return err
	}
	VerboseLog("Formatter tool: %s (timeout %s)", cfg.Tool, cfg.Timeout)
	if cfg.ToolConfig != "" {
		VerboseLog("Tool config: %s", cfg.ToolConfig)
	}

	eng := buildEngine(cfg)

	// No files, or a lone "-", means a stdin -> stdout pipe.
	if len(args) == 0 || (len(args) == 1 && args[0] == stdinName) {
		return formatStdin(ctx, eng, flags)
	}

	var results []fileResult
	for _, path := range args {
		result, err := formatFile(ctx, eng, path, flags)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	printFormatResults(results, flags)

	if flags.check {
		var changed []string
		for _, r := range results {
			if r.Changed {
				changed = append(changed, r.Name)
			}
		}
		if len(changed) > 0 {
			return model.NewCLIError(model.ExitCheckFailed,
				fmt.Sprintf("%d file(s) would be reformatted", len(changed)))
		}
	}
	return nil
}

// buildEngine assembles the processing pipeline from the merged
// configuration. All components share a single shell runner.
func buildEngine(cfg config.Config) *engine.Engine {
	r := runner.NewShellRunner()
	proc := formatter.NewProcessor(r, cfg.Invocation(), Warn)
	pipeline := hooks.NewPipeline(r, cfg.Hooks(), Warn)
	return engine.New(proc, pipeline, cfg.NormalizeFrontMatter)
}

// formatStdin reads the whole document from stdin and writes the result
// to stdout. In --check mode nothing is written and a changed document
// is reported via the exit code, mirroring file mode.
func formatStdin(ctx context.Context, eng *engine.Engine, flags *formatFlags) error {
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to read stdin", err)
	}

	output, report, err := eng.FormatDocument(ctx, source)
	if err != nil {
		return err
	}
	VerboseLog("stdin: %d block(s), %d formatted, %d fell back",
		report.Blocks, report.Formatted, report.FellBack)

	if flags.check {
		if report.Changed {
			return model.NewCLIError(model.ExitCheckFailed, "stdin would be reformatted")
		}
		return nil
	}

	if _, err := os.Stdout.Write(output); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to write stdout", err)
	}
	return nil
}

// formatFile formats a single file. In the default mode the file is
// rewritten in place only when its content actually changed, preserving
// the original permissions.
func formatFile(ctx context.Context, eng *engine.Engine, path string, flags *formatFlags) (fileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{}, model.WrapCLIError(model.ExitInputNotFound,
			fmt.Sprintf("cannot read input %s", path), err)
	}
	if info.IsDir() {
		return fileResult{}, model.NewCLIError(model.ExitInputNotFound,
			fmt.Sprintf("input %s is a directory", path))
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, model.WrapCLIError(model.ExitInputNotFound,
			fmt.Sprintf("cannot read input %s", path), err)
	}

	VerboseLog("Formatting %s...", path)
	output, report, err := eng.FormatDocument(ctx, source)
	if err != nil {
		return fileResult{}, err
	}

	result := fileResult{Name: path, Changed: report.Changed, Report: report}

	switch {
	case flags.check:
		// Report only; never write.
	case flags.stdout:
		if _, err := os.Stdout.Write(output); err != nil {
			return fileResult{}, model.WrapCLIError(model.ExitGeneralError, "failed to write stdout", err)
		}
	case report.Changed && !bytes.Equal(source, output):
		if err := os.WriteFile(path, output, info.Mode().Perm()); err != nil {
			return fileResult{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to rewrite %s", path), err)
		}
	}
	return result, nil
}

// printFormatResults outputs the per-file summary in text or JSON
// format. In --stdout mode the summary is suppressed so the document
// on stdout stays clean.
func printFormatResults(results []fileResult, flags *formatFlags) {
	if flags.stdout {
		return
	}
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(data))
		return
	}
	for _, r := range results {
		status := "unchanged"
		if r.Changed {
			status = "reformatted"
			if flags.check {
				status = "would reformat"
			}
		}
		fmt.Printf("%s: %s (%d block(s), %d formatted, %d fell back)\n",
			r.Name, status, r.Report.Blocks, r.Report.Formatted, r.Report.FellBack)
	}
}
