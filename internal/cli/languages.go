// Package cli — languages.go implements the "mdpipe languages" command.
//
// The languages command lists every supported language key, its fence
// tag aliases, and the effective command each would be formatted with
// under the current configuration. It reads the same merged config as
// the format command, so it doubles as a way to inspect overrides and
// the allow-list.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mdpipe/internal/config"
	"github.com/shinji-kodama/mdpipe/internal/language"
	"github.com/shinji-kodama/mdpipe/internal/model"
)

// languageEntry is one row of the languages listing.
type languageEntry struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases,omitempty"`
	Command string   `json:"command"`
	Enabled bool     `json:"enabled"`
}

// NewLanguagesCommand creates the "languages" cobra command.
func NewLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their effective formatter commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanguages()
		},
	}
}

func runLanguages() error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	cfg, err := config.Load(cfgFile, cwd, nil)
	if err != nil {
		return err
	}

	entries := collectLanguages(cfg)
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	for _, entry := range entries {
		marker := " "
		if !entry.Enabled {
			marker = "-"
		}
		aliases := ""
		if len(entry.Aliases) > 0 {
			aliases = fmt.Sprintf(" (%s)", strings.Join(entry.Aliases, ", "))
		}
		fmt.Printf("%s %-12s%-24s %s\n", marker, entry.Key, aliases, entry.Command)
	}
	return nil
}

// collectLanguages builds one entry per supported key, resolving the
// effective command (override or suite) for each.
func collectLanguages(cfg config.Config) []languageEntry {
	inv := cfg.Invocation()
	keys := language.Supported()
	entries := make([]languageEntry, 0, len(keys))
	for _, key := range keys {
		command, _ := inv.CommandFor(key)
		entries = append(entries, languageEntry{
			Key:     key.String(),
			Aliases: language.AliasesOf(key),
			Command: command,
			Enabled: language.IsEnabled(key, cfg.Enabled),
		})
	}
	return entries
}
