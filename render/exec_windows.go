//go:build windows

package render

import (
	"os/exec"
	"syscall"
)

func applyHiddenWindow(cmd *exec.Cmd) {
	// Keeps a console window from flashing up while java runs.
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
