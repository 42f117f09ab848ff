// Package cli — doctor.go implements the "mdpipe doctor" command.
//
// The doctor command checks that the external commands the current
// configuration relies on actually resolve on PATH, and that the
// formatter suite's config file (if any) parses. It exists because every
// real failure mode of this tool is environmental: mdsf not installed,
// an override binary missing, a broken mdsf.json.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mdpipe/internal/config"
	"github.com/shinji-kodama/mdpipe/internal/language"
	"github.com/shinji-kodama/mdpipe/internal/model"
)

// doctorCheck is one diagnostic result.
type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
	Command string `json:"command,omitempty"`
}

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that configured formatters and hooks are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

func runDoctor() error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	cfg, err := config.Load(cfgFile, cwd, nil)
	if err != nil {
		return err
	}

	checks := runChecks(cfg)
	printDoctorResults(checks)

	for _, c := range checks {
		if !c.OK {
			return model.NewCLIError(model.ExitGeneralError, "environment checks failed")
		}
	}
	return nil
}

// runChecks probes each distinct command the configuration can invoke.
// Only the first token of a command is resolved; arguments and shell
// syntax are the command's own business.
func runChecks(cfg config.Config) []doctorCheck {
	var checks []doctorCheck

	checks = append(checks, checkCommand("formatter suite", cfg.Tool))

	for _, key := range language.Supported() {
		command, ok := cfg.Overrides[key]
		if !ok {
			continue
		}
		checks = append(checks, checkCommand(fmt.Sprintf("override (%s)", key), command))
	}

	if cfg.PreCommand != "" {
		checks = append(checks, checkCommand("pre-command", cfg.PreCommand))
	}
	if cfg.PostCommand != "" {
		checks = append(checks, checkCommand("post-command", cfg.PostCommand))
	}

	if cfg.ToolConfig != "" {
		check := doctorCheck{Name: "tool config", OK: true, Detail: cfg.ToolConfig}
		if err := config.CheckToolConfig(cfg.ToolConfig); err != nil {
			check.OK = false
			check.Detail = err.Error()
		}
		checks = append(checks, check)
	}
	return checks
}

// checkCommand resolves the first token of a shell command on PATH.
func checkCommand(name, command string) doctorCheck {
	check := doctorCheck{Name: name, Command: command}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		check.Detail = "empty command"
		return check
	}

	path, err := exec.LookPath(fields[0])
	if err != nil {
		check.Detail = fmt.Sprintf("%s not found on PATH", fields[0])
		return check
	}
	check.OK = true
	check.Detail = path
	return check
}

func printDoctorResults(checks []doctorCheck) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(checks, "", "  ")
		fmt.Println(string(data))
		return
	}
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "MISSING"
		}
		fmt.Printf("%-20s %-8s %s\n", c.Name, status, c.Detail)
	}
}
