//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup places the command in its own process group and wires
// context cancellation to kill the entire group.
//
// Formatter commands are shell pipelines that may spawn children
// (mdsf itself launches per-language tools). Killing only the direct
// child would leave grandchildren holding our stdout pipe, so the
// Cancel hook signals the negative PID, which targets the whole group.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
