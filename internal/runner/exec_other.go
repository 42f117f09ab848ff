//go:build !unix

package runner

import "os/exec"

// setProcessGroup is a no-op on non-Unix platforms, where process groups
// are not available. cmd.Cancel defaults to os.Process.Kill, which
// terminates the direct child only.
func setProcessGroup(cmd *exec.Cmd) {
	_ = cmd
}
